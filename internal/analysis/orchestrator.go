package analysis

import (
	"context"
	"log"
	"time"

	"prism/api/internal/store"
)

// HeuristicModel is the provenance name for the terminal rule-based tier.
const HeuristicModel = "local-heuristic"

type textGenerator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Tier is one generative attempt: a model name and the budget it gets
// before the orchestrator moves on.
type Tier struct {
	Model   string
	Timeout time.Duration
}

// Orchestrator walks an ordered list of generative tiers and lands on
// the local heuristic, so Run always returns an analysis.
type Orchestrator struct {
	gen   textGenerator
	tiers []Tier
}

func NewOrchestrator(gen textGenerator, tiers []Tier) *Orchestrator {
	return &Orchestrator{gen: gen, tiers: tiers}
}

// Run analyzes one reviewed decision. Timeouts, transport failures, and
// unparseable responses all advance to the next tier; provenance records
// which tier answered and how long the whole run took.
func (o *Orchestrator) Run(ctx context.Context, d store.Decision) store.Analysis {
	started := time.Now()
	prompt := BuildPrompt(d)

	if o.gen != nil && prompt != "" {
		for _, tier := range o.tiers {
			tierStart := time.Now()
			callCtx, cancel := context.WithTimeout(ctx, tier.Timeout)
			raw, err := o.gen.Generate(callCtx, tier.Model, prompt)
			cancel()
			if err != nil {
				log.Printf("analysis: tier %s failed after %s: %v", tier.Model, time.Since(tierStart).Round(time.Millisecond), err)
				continue
			}
			result, err := Parse(raw)
			if err != nil {
				log.Printf("analysis: tier %s returned unusable output: %v", tier.Model, err)
				continue
			}
			result.Meta = store.AnalysisMeta{
				Model:     tier.Model,
				LatencyMs: time.Since(started).Milliseconds(),
			}
			result.CreatedAt = time.Now().UTC()
			return result
		}
	}

	result := Heuristic(d)
	result.Meta = store.AnalysisMeta{
		Model:        HeuristicModel,
		FallbackUsed: true,
		LatencyMs:    time.Since(started).Milliseconds(),
	}
	result.CreatedAt = time.Now().UTC()
	return result
}
