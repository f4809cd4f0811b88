package analysis

import (
	"fmt"
	"strings"

	"prism/api/internal/store"
)

const unspecified = "未填写"

func orUnspecified(value string) string {
	if value == "" {
		return unspecified
	}
	return value
}

// BuildPrompt renders the instruction for one reviewed decision. The
// retrospective's polarity picks the persona: a blunt bias critic for
// negative outcomes, a decision coach for positive ones.
func BuildPrompt(d store.Decision) string {
	retro := d.Retrospective
	if retro == nil {
		return ""
	}

	emotionLabel := emotionLabels[d.Emotion.Primary]
	if emotionLabel == "" {
		emotionLabel = "未知"
	}

	positive := retro.Polarity == store.PolarityPositive

	var influences []string
	inf := retro.Influences
	if positive {
		if inf.Emotion {
			influences = append(influences, "心态稳定")
		}
		if inf.NewInfo {
			influences = append(influences, "信息充分")
		}
		if inf.ExternalPressure {
			influences = append(influences, "好的建议")
		}
		if inf.ResourceChange {
			influences = append(influences, "资源充足")
		}
	} else {
		if inf.Emotion {
			influences = append(influences, "情绪影响")
		}
		if inf.NewInfo {
			influences = append(influences, "新信息干扰")
		}
		if inf.ExternalPressure {
			influences = append(influences, "外部压力")
		}
		if inf.ResourceChange {
			influences = append(influences, "资源变化")
		}
	}
	if inf.Other {
		influences = append(influences, "其他")
	}
	influenceList := strings.Join(influences, "、")
	if influenceList == "" {
		influenceList = "无"
	}

	var details string
	if inf.Details != "" {
		details = "补充说明: " + inf.Details + "\n"
	}

	baseInfo := fmt.Sprintf(`【决策时的信息】
决定: %s
选择: %s
理由: %s
担心: %s
情绪: %s
预期: %s

【复盘时的信息】
实际结果: %s`,
		d.Statement,
		d.ChosenOption,
		orUnspecified(d.Reasoning),
		orUnspecified(d.Concerns),
		emotionLabel,
		orUnspecified(d.Expectations),
		retro.ActualOutcome,
	)

	if positive {
		successLabel := successTypeLabels[retro.SuccessType]
		if successLabel == "" {
			successLabel = "未知"
		}
		return fmt.Sprintf(`你是一个决策教练和认知科学专家，请分析用户这次成功决策的关键因素，帮助用户把"运气"变成"能力"，提炼可复用的决策方法论。

%s
做对了什么: %s
成功类型: %s
成功因素: %s
%s
请严格返回JSON格式（不要返回其他任何内容，不要用markdown代码块包裹）：
{
  "summary": "200字以内的成功分析，包含：预期vs实际结果的对比、做对了什么关键判断、哪些能力可以复用",
  "coreIssue": "一句话总结这次成功的核心原因，不超过40字，要精准",
  "biasTypes": ["从以下选1-2个与成功相关的思维优势: good_calibration, contrarian_thinking, risk_awareness, information_advantage, execution_discipline, emotional_control, adaptive_thinking"],
  "currentPattern": "一句话描述这个人在这次决策中表现出的好习惯/优势，不超过30字",
  "suggestedPrinciple": "把这次的成功经验提炼为一条可复用的决策原则，不超过30字",
  "suggestion": "如何在下次决策中延续这个优势，要具体可操作，不超过60字",
  "confidence": 75
}`, baseInfo, retro.RightAssumptions, successLabel, influenceList, details)
	}

	errorLabel := errorTypeLabels[retro.ErrorType]
	if errorLabel == "" {
		errorLabel = "未知"
	}
	return fmt.Sprintf(`你是一个认知偏差识别专家和决策教练，请客观、犀利地分析用户的决策，不要安慰，要直接指出问题本质。

%s
错误假设: %s
错误类型: %s
影响因素: %s
%s
请严格返回JSON格式（不要返回其他任何内容，不要用markdown代码块包裹）：
{
  "summary": "200字以内的对比分析，包含：预期vs现实的对比、核心问题是什么、为什么会出现这个偏差",
  "coreIssue": "一句话刺穿问题本质，不超过40字，要犀利直接",
  "biasTypes": ["从以下选2-3个最相关的: optimism_bias, planning_fallacy, confirmation_bias, sunk_cost_fallacy, anchoring_bias, overconfidence_bias, availability_bias"],
  "currentPattern": "一句话描述这个人在这次决策中表现出的行为模式/习惯，不超过30字，如'倾向于在兴奋时快速决定，忽略风险信号'",
  "suggestedPrinciple": "针对上述模式，建议调整为什么样的行为原则，不超过30字，要具体可执行",
  "suggestion": "针对下次类似决策的具体建议，要可操作，不超过60字",
  "confidence": 75
}`, baseInfo, retro.WrongAssumptions, errorLabel, influenceList, details)
}
