// Package analysis turns a reviewed decision into a cognitive analysis,
// preferring generative models and degrading to a local rule set.
package analysis

// Negative bias kinds the critic prompt may select from.
const (
	BiasOptimism       = "optimism_bias"
	BiasPlanning       = "planning_fallacy"
	BiasConfirmation   = "confirmation_bias"
	BiasSunkCost       = "sunk_cost_fallacy"
	BiasAnchoring      = "anchoring_bias"
	BiasOverconfidence = "overconfidence_bias"
	BiasAvailability   = "availability_bias"
)

// Positive trait kinds the coach prompt may select from.
const (
	TraitCalibration   = "good_calibration"
	TraitContrarian    = "contrarian_thinking"
	TraitRiskAwareness = "risk_awareness"
	TraitInformation   = "information_advantage"
	TraitExecution     = "execution_discipline"
	TraitEmotional     = "emotional_control"
	TraitAdaptive      = "adaptive_thinking"
)

var biasLabels = map[string]string{
	BiasOptimism:       "乐观偏差",
	BiasConfirmation:   "确认偏差",
	BiasSunkCost:       "沉没成本谬误",
	BiasPlanning:       "计划谬误",
	BiasAnchoring:      "锚定效应",
	BiasAvailability:   "可得性偏差",
	BiasOverconfidence: "过度自信",

	TraitCalibration:   "判断校准",
	TraitContrarian:    "逆向思维",
	TraitRiskAwareness: "风险意识",
	TraitInformation:   "信息优势",
	TraitExecution:     "执行力",
	TraitEmotional:     "情绪管理",
	TraitAdaptive:      "适应性思维",
}

var emotionLabels = map[string]string{
	"anxious":  "焦虑",
	"excited":  "兴奋",
	"calm":     "冷静",
	"urgent":   "急迫",
	"confused": "纠结",
}

var errorTypeLabels = map[string]string{
	"judgment":  "判断错了",
	"execution": "执行错了",
	"both":      "判断和执行都有问题",
}

var successTypeLabels = map[string]string{
	"judgment":  "判断准确",
	"execution": "执行到位",
	"both":      "判断和执行都很出色",
}

// BiasLabels resolves bias or trait keys to their display labels.
// Unknown keys pass through unchanged.
func BiasLabels(types []string) []string {
	labels := make([]string, 0, len(types))
	for _, key := range types {
		if label, ok := biasLabels[key]; ok {
			labels = append(labels, label)
			continue
		}
		labels = append(labels, key)
	}
	return labels
}
