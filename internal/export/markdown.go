package export

import (
	"fmt"
	"strings"
	"time"

	"prism/api/internal/store"
)

var emotionNames = map[string]string{
	"anxious":  "焦虑",
	"excited":  "兴奋",
	"calm":     "冷静",
	"urgent":   "急迫",
	"confused": "纠结",
}

var categoryNames = map[string]string{
	store.CategoryProduct:    "产品",
	store.CategoryInvestment: "投资",
	store.CategoryCareer:     "工作",
	store.CategoryLife:       "人生",
}

// buildMarkdown renders the journal as a single Markdown document,
// one section per decision in reverse chronological order.
func buildMarkdown(decisions []store.Decision, now time.Time) string {
	var b strings.Builder

	b.WriteString("# 棱镜 · 决策记录\n\n")
	fmt.Fprintf(&b, "> 导出时间：%s\n", now.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "> 共 %d 条决策\n\n---\n\n", len(decisions))

	for i, d := range decisions {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, d.Statement)
		fmt.Fprintf(&b, "- **日期**：%s\n", d.CreatedAt.Format("2006-01-02"))
		fmt.Fprintf(&b, "- **选择**：%s\n", d.ChosenOption)
		if name := categoryNames[d.Tags.Category]; name != "" {
			fmt.Fprintf(&b, "- **分类**：%s\n", name)
		}
		if name := emotionNames[d.Emotion.Primary]; name != "" {
			fmt.Fprintf(&b, "- **情绪**：%s\n", name)
		}
		if d.Reasoning != "" {
			fmt.Fprintf(&b, "- **理由**：%s\n", d.Reasoning)
		}
		if d.Concerns != "" {
			fmt.Fprintf(&b, "- **担心**：%s\n", d.Concerns)
		}
		if d.Expectations != "" {
			fmt.Fprintf(&b, "- **预期**：%s\n", d.Expectations)
		}

		if r := d.Retrospective; r != nil {
			b.WriteString("\n### 复盘\n")
			fmt.Fprintf(&b, "- **实际结果**：%s\n", r.ActualOutcome)
			fmt.Fprintf(&b, "- **结果类型**：%s\n", polarityName(r.Polarity))
			if r.WrongAssumptions != "" {
				fmt.Fprintf(&b, "- **错误假设**：%s\n", r.WrongAssumptions)
			}
			if r.RightAssumptions != "" {
				fmt.Fprintf(&b, "- **做对了什么**：%s\n", r.RightAssumptions)
			}
		}

		if a := d.Analysis; a != nil {
			b.WriteString("\n### 智能分析\n")
			if a.CoreIssue != "" {
				fmt.Fprintf(&b, "- **核心洞察**：%s\n", a.CoreIssue)
			}
			if a.Summary != "" {
				fmt.Fprintf(&b, "- **分析总结**：%s\n", a.Summary)
			}
			if a.CurrentPattern != "" {
				fmt.Fprintf(&b, "- **行为模式**：%s\n", a.CurrentPattern)
			}
			if a.SuggestedPrinciple != "" {
				fmt.Fprintf(&b, "- **建议原则**：%s\n", a.SuggestedPrinciple)
			}
			if a.Suggestion != "" {
				fmt.Fprintf(&b, "- **下次建议**：%s\n", a.Suggestion)
			}
		}

		b.WriteString("\n---\n\n")
	}

	return b.String()
}

func polarityName(polarity string) string {
	if polarity == store.PolarityPositive {
		return "正面"
	}
	return "负面"
}
