package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"prism/api/internal/store"
)

// textGenerator is the slice of the generative client the classifier needs.
type textGenerator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Assisted asks a generative model for tags and silently falls back to the
// keyword classifier on any failure. Callers only see the difference
// through the AIGenerated flag.
type Assisted struct {
	gen   textGenerator
	model string
}

func NewAssisted(gen textGenerator, model string) *Assisted {
	return &Assisted{gen: gen, model: model}
}

const assistedPrompt = `你是一个决策分类助手。请分析以下决策内容,并以JSON格式返回分类结果。

决策内容:%s

请只返回以下格式的JSON,不要包含任何其他文字:
{"category": "product或investment或career或life", "riskLevel": "low或medium或high", "reversibility": "reversible或irreversible"}`

func (c *Assisted) Classify(ctx context.Context, text string) store.Tags {
	fallback := Keyword(text)
	if significantLen(text) < 3 || c.gen == nil {
		return fallback
	}

	raw, err := c.gen.Generate(ctx, c.model, fmt.Sprintf(assistedPrompt, text))
	if err != nil {
		log.Printf("classify: assisted call failed, using keywords: %v", err)
		return fallback
	}

	tags, err := parseTags(raw)
	if err != nil {
		log.Printf("classify: assisted response rejected, using keywords: %v", err)
		return fallback
	}
	tags.AIGenerated = true
	return tags
}

func parseTags(raw string) (store.Tags, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return store.Tags{}, fmt.Errorf("no JSON object in response")
	}

	var parsed struct {
		Category      string `json:"category"`
		RiskLevel     string `json:"riskLevel"`
		Reversibility string `json:"reversibility"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return store.Tags{}, fmt.Errorf("decode tags: %w", err)
	}

	switch parsed.Category {
	case store.CategoryProduct, store.CategoryInvestment, store.CategoryCareer, store.CategoryLife:
	default:
		return store.Tags{}, fmt.Errorf("invalid category %q", parsed.Category)
	}
	switch parsed.RiskLevel {
	case store.RiskLow, store.RiskMedium, store.RiskHigh:
	default:
		return store.Tags{}, fmt.Errorf("invalid risk level %q", parsed.RiskLevel)
	}
	switch parsed.Reversibility {
	case store.Reversible, store.Irreversible:
	default:
		return store.Tags{}, fmt.Errorf("invalid reversibility %q", parsed.Reversibility)
	}

	return store.Tags{
		Category:      parsed.Category,
		RiskLevel:     parsed.RiskLevel,
		Reversibility: parsed.Reversibility,
	}, nil
}
