// Package classify suggests tags for a decision statement, either by
// keyword matching alone or with a generative model in front of it.
package classify

import (
	"strings"
	"unicode"

	"prism/api/internal/store"
)

// Category keyword lists. Declaration order breaks ties: the first
// category to reach the maximum hit count wins.
var categoryKeywords = []struct {
	name  string
	words []string
}{
	{store.CategoryProduct, []string{
		"产品", "功能", "需求", "上线", "迭代", "用户体验", "用户", "feature", "mvp",
		"项目", "开发", "技术", "系统", "工具", "平台", "应用", "小程序", "网站",
		"设计", "方案", "架构", "重构", "优化", "模块", "接口", "api", "知识管理", "做一个",
	}},
	{store.CategoryInvestment, []string{
		"投资", "基金", "股票", "理财", "买入", "卖出", "收益", "亏损", "房产",
		"买房", "炒股", "加仓", "减仓", "定投", "债券", "期货", "比特币", "加密", "资产",
	}},
	{store.CategoryCareer, []string{
		"工作", "跳槽", "面试", "晋升", "加薪", "离职", "转行", "团队", "老板",
		"公司", "创业", "副业", "兼职", "offer", "绩效", "同事", "部门", "管理", "升职", "裁员",
	}},
	{store.CategoryLife, []string{
		"生活", "搬家", "结婚", "旅行", "健康", "学习", "考试", "房子", "装修",
		"宠物", "孩子", "教育", "感情", "分手", "运动", "饮食", "习惯", "城市", "回老家",
	}},
}

var highRiskWords = []string{"不可逆", "巨大", "严重", "风险很大", "赌", "全部", "所有", "押注", "重大"}
var lowRiskWords = []string{"小", "试试", "测试", "尝试", "低风险", "简单", "轻松"}
var irreversibleWords = []string{"不可逆", "无法撤回", "永久", "不能回头", "辞职", "离职", "分手", "卖掉"}

// Keyword derives tags from the statement text alone. It never fails:
// statements with fewer than three significant characters get empty tags,
// everything else gets a category, a risk level, and a reversibility.
func Keyword(text string) store.Tags {
	if significantLen(text) < 3 {
		return store.Tags{}
	}
	lowered := strings.ToLower(text)

	category := store.CategoryLife
	best := 0
	for _, set := range categoryKeywords {
		hits := 0
		for _, word := range set.words {
			if strings.Contains(lowered, word) {
				hits++
			}
		}
		if hits > best {
			best = hits
			category = set.name
		}
	}

	risk := store.RiskMedium
	if containsAny(lowered, highRiskWords) {
		risk = store.RiskHigh
	} else if containsAny(lowered, lowRiskWords) {
		risk = store.RiskLow
	}

	reversibility := store.Reversible
	if containsAny(lowered, irreversibleWords) {
		reversibility = store.Irreversible
	}

	return store.Tags{
		Category:      category,
		RiskLevel:     risk,
		Reversibility: reversibility,
	}
}

func containsAny(text string, words []string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func significantLen(text string) int {
	count := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}
