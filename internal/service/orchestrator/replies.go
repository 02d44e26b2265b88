package orchestrator

import (
	"fmt"
	"strings"

	"github.com/sandevgo/memobot/internal/core"
)

const (
	replySaved            = "好的，已经记下了。"
	replyNotFound         = "抱歉，我没有找到与您描述相关的记忆。"
	replyCancelled        = "好的，已取消操作。"
	replyDeleted          = "好的，我已经删除了这条记忆。"
	replyDeletedContext   = "好的，我已经删除了那条记忆。"
	replyChitChat         = "抱歉，我暂时无法处理这类请求，我的主要任务是记录和查询记忆。"
	replyRouterConfused   = "抱歉，我不太明白您的意思，可以换个方式说吗？"
	replyPendingUnrelated = "抱歉，我没太明白您的意思。我们正在讨论修改或删除一个记忆，请问您是同意还是取消？"
)

func replyRecallMiss(query string) string {
	return fmt.Sprintf("关于\"%s\"，我好像没什么印象...", query)
}

func replyUpdated(newContent string) string {
	return fmt.Sprintf("好的，我已经将记忆更新为：%s", newContent)
}

func replyModifyPrompt(content string) string {
	return fmt.Sprintf("您是想修改这条记忆吗？\n\n---\n%s\n---", content)
}

func replyDeletePrompt(content string) string {
	return fmt.Sprintf("您确定要删除这条记忆吗？\n\n---\n%s\n---", content)
}

func replyClarification(options []core.RankedCandidate) string {
	var sb strings.Builder
	sb.WriteString("我找到了几条相关的记忆，请问您指的是哪一条？回复编号即可：\n")
	for i, opt := range options {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, opt.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func replyRecallSummary(cands []core.RankedCandidate) string {
	var sb strings.Builder
	sb.WriteString("我找到了这些相关的记忆：\n")
	for i, c := range cands {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}
