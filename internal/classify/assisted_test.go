package classify

import (
	"context"
	"errors"
	"testing"

	"prism/api/internal/store"
)

type fakeGenerator struct {
	response string
	err      error
	prompt   string
}

func (f *fakeGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func TestAssistedParsesModelResponse(t *testing.T) {
	gen := &fakeGenerator{response: `分类结果如下:
{"category": "career", "riskLevel": "high", "reversibility": "irreversible"}
以上。`}
	c := NewAssisted(gen, "hunyuan-lite")

	got := c.Classify(context.Background(), "要不要换一份工作")
	want := store.Tags{Category: store.CategoryCareer, RiskLevel: store.RiskHigh, Reversibility: store.Irreversible, AIGenerated: true}
	if got != want {
		t.Fatalf("tags = %+v, want %+v", got, want)
	}
	if gen.prompt == "" {
		t.Fatal("generator was not called")
	}
}

func TestAssistedFallsBackOnGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream down")}
	c := NewAssisted(gen, "hunyuan-lite")

	got := c.Classify(context.Background(), "要不要辞职去创业")
	if got.AIGenerated {
		t.Fatal("fallback tags must not carry aiGenerated")
	}
	if got.Category != store.CategoryCareer {
		t.Fatalf("category = %q, want keyword result %q", got.Category, store.CategoryCareer)
	}
}

func TestAssistedFallsBackOnInvalidEnum(t *testing.T) {
	gen := &fakeGenerator{response: `{"category": "hobby", "riskLevel": "medium", "reversibility": "reversible"}`}
	c := NewAssisted(gen, "hunyuan-lite")

	got := c.Classify(context.Background(), "要不要辞职去创业")
	if got.AIGenerated {
		t.Fatal("invalid enum must fall back to keywords")
	}
}

func TestAssistedFallsBackOnMissingJSON(t *testing.T) {
	gen := &fakeGenerator{response: "抱歉,我无法完成这个任务。"}
	c := NewAssisted(gen, "hunyuan-lite")

	got := c.Classify(context.Background(), "要不要辞职去创业")
	if got.AIGenerated {
		t.Fatal("missing JSON must fall back to keywords")
	}
}

func TestAssistedShortInputSkipsModelCall(t *testing.T) {
	gen := &fakeGenerator{response: `{"category": "life", "riskLevel": "low", "reversibility": "reversible"}`}
	c := NewAssisted(gen, "hunyuan-lite")

	got := c.Classify(context.Background(), "嗯")
	if got != (store.Tags{}) {
		t.Fatalf("tags = %+v, want empty", got)
	}
	if gen.prompt != "" {
		t.Fatal("generator must not be called for short input")
	}
}
