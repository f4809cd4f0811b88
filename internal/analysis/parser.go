package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"prism/api/internal/store"
)

var ErrNoJSON = errors.New("analysis: no JSON object in response")

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripReasoning removes the chain-of-thought block reasoning models
// prepend to their answers.
func StripReasoning(raw string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(raw, ""))
}

// ExtractJSON cuts the first-brace-to-last-brace span out of free text.
// Models wrap the object in prose or code fences often enough that this
// is the reliable path.
func ExtractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSON
	}
	return raw[start : end+1], nil
}

// Parse validates a model response into an analysis. Validation is
// structural: the seven fields must be present with the right shapes,
// but the text content is taken as-is.
func Parse(raw string) (store.Analysis, error) {
	candidate, err := ExtractJSON(StripReasoning(raw))
	if err != nil {
		return store.Analysis{}, err
	}

	var parsed struct {
		Summary            *string  `json:"summary"`
		CoreIssue          *string  `json:"coreIssue"`
		BiasTypes          []string `json:"biasTypes"`
		CurrentPattern     *string  `json:"currentPattern"`
		SuggestedPrinciple *string  `json:"suggestedPrinciple"`
		Suggestion         *string  `json:"suggestion"`
		Confidence         *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return store.Analysis{}, fmt.Errorf("analysis: decode response: %w", err)
	}

	for name, field := range map[string]*string{
		"summary":            parsed.Summary,
		"coreIssue":          parsed.CoreIssue,
		"currentPattern":     parsed.CurrentPattern,
		"suggestedPrinciple": parsed.SuggestedPrinciple,
		"suggestion":         parsed.Suggestion,
	} {
		if field == nil || *field == "" {
			return store.Analysis{}, fmt.Errorf("analysis: missing field %q", name)
		}
	}
	if len(parsed.BiasTypes) == 0 {
		return store.Analysis{}, fmt.Errorf("analysis: biasTypes must be a non-empty array")
	}
	for _, kind := range parsed.BiasTypes {
		if kind == "" {
			return store.Analysis{}, fmt.Errorf("analysis: biasTypes contains an empty entry")
		}
	}
	if parsed.Confidence == nil {
		return store.Analysis{}, fmt.Errorf("analysis: missing field %q", "confidence")
	}

	return store.Analysis{
		Summary:            *parsed.Summary,
		CoreIssue:          *parsed.CoreIssue,
		BiasTypes:          parsed.BiasTypes,
		CurrentPattern:     *parsed.CurrentPattern,
		SuggestedPrinciple: *parsed.SuggestedPrinciple,
		Suggestion:         *parsed.Suggestion,
		Confidence:         NormalizeConfidence(*parsed.Confidence),
	}, nil
}

// NormalizeConfidence maps model confidence to an integer percentage.
// Fractions at or below 1 are read as ratios and rescaled.
func NormalizeConfidence(value float64) int {
	if value > 0 && value <= 1 {
		value = value * 100
	}
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}
