package orchestrator

import (
	"context"
	"strconv"
	"strings"

	"github.com/sandevgo/memobot/internal/core"
	"github.com/sandevgo/memobot/pkg/log"
)

type pendingKind int

const (
	pendingModify pendingKind = iota
	pendingDelete
	pendingClarify
)

type pendingIntent int

const (
	intentModify pendingIntent = iota
	intentDelete
)

// pendingAction is an operation awaiting the user's next utterance. At most
// one exists at a time; it is taken before handling and re-instated only on
// an unrelated reply.
type pendingAction struct {
	kind    pendingKind
	id      int64
	content string
	request string

	// clarification only
	options []core.RankedCandidate
	intent  pendingIntent
}

func (p *pendingAction) summary() string {
	switch p.kind {
	case pendingDelete:
		return "删除记忆：" + p.content
	case pendingModify:
		return "修改记忆：" + p.content
	default:
		return "在多条记忆中选择一条"
	}
}

// resolvePending consumes the taken pending action with the user's reply.
func (o *Orchestrator) resolvePending(ctx context.Context, p *pendingAction, text string) (string, error) {
	if p.kind == pendingClarify {
		return o.resolveClarification(ctx, p, text)
	}
	return o.resolveConfirmation(ctx, p, text)
}

// resolveClarification parses the reply as a 1-based index into the options.
// A valid pick becomes a fresh confirmation for that candidate; anything
// else cancels. Selecting is not itself consent to mutate.
func (o *Orchestrator) resolveClarification(ctx context.Context, p *pendingAction, text string) (string, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || idx < 1 || idx > len(p.options) {
		return replyCancelled, nil
	}

	chosen := p.options[idx-1]
	next := &pendingAction{
		id:      chosen.ID,
		content: chosen.Content,
		request: p.request,
	}
	if p.intent == intentDelete {
		next.kind = pendingDelete
		o.setPending(next)
		return replyDeletePrompt(chosen.Content), nil
	}
	next.kind = pendingModify
	o.setPending(next)
	return replyModifyPrompt(chosen.Content), nil
}

func (o *Orchestrator) resolveConfirmation(ctx context.Context, p *pendingAction, text string) (string, error) {
	decision, info, err := o.classifyReply(ctx, p, text)
	if err != nil {
		return "", err
	}

	switch decision {
	case decisionAffirm:
		return o.executePending(ctx, p, p.request)
	case decisionProvideInfo:
		if p.kind != pendingModify {
			break
		}
		instruction := info
		if instruction == "" {
			instruction = text
		}
		return o.executePending(ctx, p, instruction)
	case decisionDeny:
		return replyCancelled, nil
	}

	// unrelated reply: the pending action survives unchanged
	o.setPending(p)
	return replyPendingUnrelated, nil
}

// classifyReply resolves the confirmation through three layers: exact
// keyword match, the binary micromodel, then the constrained completion
// four-way call.
func (o *Orchestrator) classifyReply(ctx context.Context, p *pendingAction, text string) (string, string, error) {
	switch matchConfirmWord(text) {
	case core.ConfirmAffirm:
		return decisionAffirm, "", nil
	case core.ConfirmDeny:
		return decisionDeny, "", nil
	}

	label, err := o.classifier.ClassifyConfirmation(ctx, text)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("confirmation micromodel failed, deferring to completion")
	} else {
		switch label {
		case core.ConfirmAffirm:
			return decisionAffirm, "", nil
		case core.ConfirmDeny:
			return decisionDeny, "", nil
		}
	}

	return runPendingClassifier(ctx, o.completer, p.summary(), text)
}

func (o *Orchestrator) executePending(ctx context.Context, p *pendingAction, instruction string) (string, error) {
	if p.kind == pendingDelete {
		if err := o.deleteRecord(ctx, p.id); err != nil {
			return "", err
		}
		return replyDeleted, nil
	}
	return o.applyModify(ctx, p.id, instruction)
}
