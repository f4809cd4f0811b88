package analysis

import (
	"errors"
	"testing"
)

const validResponse = `{
	"summary": "预期与实际差距明显，核心问题在于过度乐观。",
	"coreIssue": "把最好的情况当成了最可能的情况。",
	"biasTypes": ["optimism_bias", "planning_fallacy"],
	"currentPattern": "倾向于在兴奋时快速决定。",
	"suggestedPrinciple": "先列出三个反对证据再决定。",
	"suggestion": "下次决策前找一个持反对意见的人聊聊。",
	"confidence": 75
}`

func TestParseValidResponse(t *testing.T) {
	got, err := Parse(validResponse)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Confidence != 75 {
		t.Fatalf("confidence = %d, want 75", got.Confidence)
	}
	if len(got.BiasTypes) != 2 || got.BiasTypes[0] != "optimism_bias" {
		t.Fatalf("biasTypes = %v", got.BiasTypes)
	}
}

func TestParseExtractsObjectFromProse(t *testing.T) {
	raw := "好的，以下是分析结果：\n```json\n" + validResponse + "\n```\n希望对你有帮助。"
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Summary == "" {
		t.Fatal("summary is empty")
	}
}

func TestParseStripsReasoningBlock(t *testing.T) {
	raw := "<think>\n用户的决策失败了 {draft: true} 我需要分析原因。\n</think>\n" + validResponse
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.CoreIssue != "把最好的情况当成了最可能的情况。" {
		t.Fatalf("coreIssue = %q", got.CoreIssue)
	}
}

func TestParseFractionalConfidenceRescaled(t *testing.T) {
	raw := `{"summary": "s", "coreIssue": "c", "biasTypes": ["optimism_bias"], "currentPattern": "p", "suggestedPrinciple": "pr", "suggestion": "su", "confidence": 0.85}`
	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Confidence != 85 {
		t.Fatalf("confidence = %d, want 85", got.Confidence)
	}
}

func TestParseRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"no JSON at all", "抱歉，我无法分析。"},
		{"empty biasTypes", `{"summary": "s", "coreIssue": "c", "biasTypes": [], "currentPattern": "p", "suggestedPrinciple": "pr", "suggestion": "su", "confidence": 75}`},
		{"missing summary", `{"coreIssue": "c", "biasTypes": ["optimism_bias"], "currentPattern": "p", "suggestedPrinciple": "pr", "suggestion": "su", "confidence": 75}`},
		{"missing confidence", `{"summary": "s", "coreIssue": "c", "biasTypes": ["optimism_bias"], "currentPattern": "p", "suggestedPrinciple": "pr", "suggestion": "su"}`},
		{"biasTypes wrong type", `{"summary": "s", "coreIssue": "c", "biasTypes": "optimism_bias", "currentPattern": "p", "suggestedPrinciple": "pr", "suggestion": "su", "confidence": 75}`},
		{"truncated object", `{"summary": "s", "coreIssue"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.raw); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestExtractJSONNoObject(t *testing.T) {
	if _, err := ExtractJSON("no braces here"); !errors.Is(err, ErrNoJSON) {
		t.Fatalf("err = %v, want ErrNoJSON", err)
	}
}

func TestNormalizeConfidence(t *testing.T) {
	cases := []struct {
		in   float64
		want int
	}{
		{0.85, 85},
		{1, 100},
		{75, 75},
		{0.004, 0},
		{130, 100},
		{-5, 0},
		{0, 0},
	}
	for _, tc := range cases {
		if got := NormalizeConfidence(tc.in); got != tc.want {
			t.Errorf("NormalizeConfidence(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
