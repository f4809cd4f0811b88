package analysis

import (
	"fmt"

	"prism/api/internal/store"
)

var layerLabels = map[string]string{
	"judgment":  "判断层面",
	"execution": "执行层面",
	"both":      "判断和执行层面",
}

// Heuristic produces a deterministic rule-based analysis from the stored
// record alone. It is the terminal tier and cannot fail.
func Heuristic(d store.Decision) store.Analysis {
	retro := d.Retrospective
	if retro == nil {
		retro = &store.Retrospective{}
	}

	if retro.Polarity == store.PolarityPositive {
		var traits []string
		if retro.Influences.Emotion {
			traits = append(traits, TraitEmotional)
		}
		if retro.Influences.NewInfo {
			traits = append(traits, TraitInformation)
		}
		switch retro.SuccessType {
		case "judgment":
			traits = append(traits, TraitCalibration)
		case "execution":
			traits = append(traits, TraitExecution)
		case "both":
			traits = append(traits, TraitAdaptive)
		}
		if len(traits) == 0 {
			traits = []string{TraitCalibration}
		}
		return store.Analysis{
			CoreIssue: fmt.Sprintf("你在%s表现出色。预期\"%s\"，实际\"%s\"。",
				layerLabels[retro.SuccessType], d.Expectations, retro.ActualOutcome),
			Summary: fmt.Sprintf("智能分析暂时不可用，以下为基础分析：你做对的关键是\"%s\"，这是值得保持的决策习惯。",
				retro.RightAssumptions),
			BiasTypes:          traits,
			CurrentPattern:     "能够冷静分析并坚持正确判断，值得保持。",
			SuggestedPrinciple: "把这次的成功方法记录下来，形成你的决策检查清单。",
			Suggestion:         "下次做类似决策时，回顾这次的成功经验作为参考。",
			Confidence:         40,
		}
	}

	var biases []string
	if retro.Influences.Emotion {
		biases = append(biases, BiasOptimism)
	}
	switch retro.ErrorType {
	case "judgment":
		biases = append(biases, BiasConfirmation)
	case "both":
		biases = append(biases, BiasPlanning)
	}
	if retro.Influences.ExternalPressure {
		biases = append(biases, BiasAnchoring)
	}
	if d.Emotion.Primary == "excited" {
		biases = append(biases, BiasOverconfidence)
	}
	if len(biases) == 0 {
		biases = []string{BiasOptimism}
	}
	return store.Analysis{
		CoreIssue: fmt.Sprintf("你在这次决策中主要出现了%s的偏差。预期\"%s\"，实际\"%s\"。",
			layerLabels[retro.ErrorType], d.Expectations, retro.ActualOutcome),
		Summary: fmt.Sprintf("智能分析暂时不可用，以下为基础分析：你错误的假设是\"%s\"，这提示你需要更加注意验证核心假设。",
			retro.WrongAssumptions),
		BiasTypes:          biases,
		CurrentPattern:     "倾向于凭直觉快速判断，缺少对核心假设的验证。",
		SuggestedPrinciple: "下次做类似决策时，先列出可能推翻你判断的3个证据。",
		Suggestion:         "找一个持反对意见的人聊聊，听听不同视角。",
		Confidence:         40,
	}
}
