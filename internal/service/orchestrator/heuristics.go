package orchestrator

import (
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/memobot/internal/core"
)

// Deterministic keyword sets resolve the common destructive and declarative
// cases before any model call.
var (
	chitChatKeywords   = []string{"天气", "笑话", "你好"}
	correctionPrefixes = []string{"不对", "错了", "不是", "应该是"}
	deleteKeywords     = []string{"删除", "忘掉", "去掉", "移除"}
	modifyKeywords     = []string{"修改", "更新", "编辑"}
	pronounKeywords    = []string{"这条", "那条", "这个", "它"}

	affirmWords = []string{"yes", "ok", "confirm", "y", "是的", "确认", "好的", "对", "中", "是", "确定", "好"}
	denyWords   = []string{"no", "cancel", "n", "不是", "不用了", "取消", "否", "不"}
)

// archiveKeywords mark long-form reflective content for the archive tier.
var archiveKeywords = []string{"总结", "原理", "复盘", "思考", "报告", "长期规划"}

const archiveRuneThreshold = 500

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func hasCorrectionPrefix(text string) bool {
	for _, prefix := range correctionPrefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

// matchConfirmWord resolves a bare affirmation or denial without any model
// call. Only whole-utterance matches count.
func matchConfirmWord(text string) core.Confirmation {
	normalized := strings.ToLower(strings.TrimRight(strings.TrimSpace(text), "。！!？? "))
	for _, w := range affirmWords {
		if normalized == w {
			return core.ConfirmAffirm
		}
	}
	for _, w := range denyWords {
		if normalized == w {
			return core.ConfirmDeny
		}
	}
	return core.ConfirmUnknown
}

func tierFor(content string) string {
	if containsAny(content, archiveKeywords) || utf8.RuneCountInString(content) > archiveRuneThreshold {
		return core.TierArchive
	}
	return core.TierActive
}
