package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sandevgo/memobot/internal/core"
)

// Routing labels produced by the model fallback.
const (
	routeSave    = "Save"
	routeRecall  = "Recall"
	routeModify  = "Modify"
	routeDelete  = "Delete"
	routeConfirm = "Confirm"
	routeNoOp    = "NoOp"
)

// Pending-reply decisions produced by the four-way classifier.
const (
	decisionAffirm      = "Affirm"
	decisionDeny        = "Deny"
	decisionProvideInfo = "ProvideInfo"
	decisionUnrelated   = "Unrelated"
)

// runRouter asks the completion service for a routing decision, with the
// recent conversation as context. The grammar pins the output shape; a
// non-conforming label is still an error, never repaired.
func runRouter(ctx context.Context, completer core.Completer, history []string, text string) (string, error) {
	messages := []core.Message{{Role: core.RoleSystem, Content: routerPrompt}}
	if len(history) > 0 {
		messages = append(messages, core.Message{
			Role:    core.RoleSystem,
			Content: "对话历史：\n" + strings.Join(history, "\n"),
		})
	}
	messages = append(messages, core.Message{Role: core.RoleUser, Content: text})

	raw, err := completer.Complete(ctx, messages, routerGrammar)
	if err != nil {
		return "", fmt.Errorf("router completion: %w", err)
	}

	var decision struct {
		ToolToCall string `json:"tool_to_call"`
	}
	if err := json.Unmarshal([]byte(raw), &decision); err != nil {
		return "", fmt.Errorf("malformed router output %q: %w", raw, err)
	}

	switch decision.ToolToCall {
	case routeSave, routeRecall, routeModify, routeDelete, routeConfirm, routeNoOp:
		return decision.ToolToCall, nil
	default:
		return "", fmt.Errorf("router returned unknown tool %q", decision.ToolToCall)
	}
}

// runSaveExpert extracts the durable fact and its topic tags from a raw
// utterance.
func runSaveExpert(ctx context.Context, completer core.Completer, text string) (string, []string, error) {
	raw, err := completer.Complete(ctx, []core.Message{
		{Role: core.RoleSystem, Content: saveExpertPrompt},
		{Role: core.RoleUser, Content: text},
	}, extractionGrammar)
	if err != nil {
		return "", nil, fmt.Errorf("extraction completion: %w", err)
	}

	var out struct {
		Fact     string `json:"fact"`
		Metadata struct {
			Topics []string `json:"topics"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", nil, fmt.Errorf("malformed extraction output %q: %w", raw, err)
	}
	if out.Fact == "" {
		return "", nil, fmt.Errorf("extraction returned empty fact")
	}
	return out.Fact, out.Metadata.Topics, nil
}

// runModifyExpert rewrites original content according to the user's
// modification request.
func runModifyExpert(ctx context.Context, completer core.Completer, original, instruction string) (string, error) {
	prompt := fmt.Sprintf("原始记忆：%s\n修改要求：%s", original, instruction)
	raw, err := completer.Complete(ctx, []core.Message{
		{Role: core.RoleSystem, Content: modifyExpertPrompt},
		{Role: core.RoleUser, Content: prompt},
	}, rewriteGrammar)
	if err != nil {
		return "", fmt.Errorf("rewrite completion: %w", err)
	}

	var out struct {
		ModifiedText string `json:"modified_text"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", fmt.Errorf("malformed rewrite output %q: %w", raw, err)
	}
	if out.ModifiedText == "" {
		return "", fmt.Errorf("rewrite returned empty text")
	}
	return out.ModifiedText, nil
}

// runPendingClassifier resolves an ambiguous confirmation reply into one of
// the four decisions, optionally carrying new modification text.
func runPendingClassifier(ctx context.Context, completer core.Completer, pendingSummary, reply string) (string, string, error) {
	prompt := fmt.Sprintf("等待确认的操作：%s\n用户的回复：%s", pendingSummary, reply)
	raw, err := completer.Complete(ctx, []core.Message{
		{Role: core.RoleSystem, Content: pendingClassifierPrompt},
		{Role: core.RoleUser, Content: prompt},
	}, pendingGrammar)
	if err != nil {
		return "", "", fmt.Errorf("pending classification completion: %w", err)
	}

	var out struct {
		Decision       string  `json:"decision"`
		NewInformation *string `json:"new_information"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return "", "", fmt.Errorf("malformed pending decision %q: %w", raw, err)
	}

	switch out.Decision {
	case decisionAffirm, decisionDeny, decisionProvideInfo, decisionUnrelated:
	default:
		return "", "", fmt.Errorf("pending classifier returned unknown decision %q", out.Decision)
	}

	info := ""
	if out.NewInformation != nil {
		info = *out.NewInformation
	}
	return out.Decision, info, nil
}
