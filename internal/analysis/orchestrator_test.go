package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"prism/api/internal/store"
)

// tierGenerator scripts one response per model name.
type tierGenerator struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (g *tierGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	g.calls = append(g.calls, model)
	if err := g.errs[model]; err != nil {
		return "", err
	}
	return g.responses[model], nil
}

var testTiers = []Tier{
	{Model: "deepseek-r1", Timeout: time.Second},
	{Model: "hunyuan-lite", Timeout: time.Second},
}

func TestRunUsesPrimaryTier(t *testing.T) {
	gen := &tierGenerator{responses: map[string]string{"deepseek-r1": validResponse}}
	o := NewOrchestrator(gen, testTiers)

	got := o.Run(context.Background(), reviewedDecision(store.PolarityNegative))
	if got.Meta.Model != "deepseek-r1" {
		t.Fatalf("model = %q", got.Meta.Model)
	}
	if got.Meta.FallbackUsed {
		t.Fatal("primary tier must not be marked as fallback")
	}
	if len(gen.calls) != 1 {
		t.Fatalf("calls = %v, want one", gen.calls)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("createdAt not set")
	}
}

func TestRunAdvancesOnPrimaryError(t *testing.T) {
	gen := &tierGenerator{
		errs:      map[string]error{"deepseek-r1": errors.New("timeout")},
		responses: map[string]string{"hunyuan-lite": validResponse},
	}
	o := NewOrchestrator(gen, testTiers)

	got := o.Run(context.Background(), reviewedDecision(store.PolarityNegative))
	if got.Meta.Model != "hunyuan-lite" {
		t.Fatalf("model = %q, want hunyuan-lite", got.Meta.Model)
	}
	if got.Meta.FallbackUsed {
		t.Fatal("secondary generative tier is not the heuristic fallback")
	}
}

func TestRunAdvancesOnUnparseableOutput(t *testing.T) {
	gen := &tierGenerator{
		responses: map[string]string{
			"deepseek-r1":  "我无法给出JSON。",
			"hunyuan-lite": validResponse,
		},
	}
	o := NewOrchestrator(gen, testTiers)

	got := o.Run(context.Background(), reviewedDecision(store.PolarityNegative))
	if got.Meta.Model != "hunyuan-lite" {
		t.Fatalf("model = %q, want hunyuan-lite", got.Meta.Model)
	}
}

func TestRunLandsOnHeuristicWhenAllTiersFail(t *testing.T) {
	gen := &tierGenerator{errs: map[string]error{
		"deepseek-r1":  errors.New("down"),
		"hunyuan-lite": errors.New("down"),
	}}
	o := NewOrchestrator(gen, testTiers)

	got := o.Run(context.Background(), reviewedDecision(store.PolarityNegative))
	if got.Meta.Model != HeuristicModel {
		t.Fatalf("model = %q, want %q", got.Meta.Model, HeuristicModel)
	}
	if !got.Meta.FallbackUsed {
		t.Fatal("heuristic result must be marked as fallback")
	}
	if got.Confidence != 40 {
		t.Fatalf("confidence = %d, want 40", got.Confidence)
	}
	if len(got.BiasTypes) == 0 {
		t.Fatal("heuristic must return bias types")
	}
}

func TestRunWithoutGeneratorGoesStraightToHeuristic(t *testing.T) {
	o := NewOrchestrator(nil, testTiers)
	got := o.Run(context.Background(), reviewedDecision(store.PolarityPositive))
	if got.Meta.Model != HeuristicModel || !got.Meta.FallbackUsed {
		t.Fatalf("meta = %+v, want heuristic fallback", got.Meta)
	}
}
