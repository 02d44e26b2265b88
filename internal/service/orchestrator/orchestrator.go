package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sandevgo/memobot/internal/core"
	"github.com/sandevgo/memobot/pkg/log"
)

// Recaller is the retrieval capability the dispatcher needs.
type Recaller interface {
	Recall(ctx context.Context, query string, contextEntities []string) ([]core.RankedCandidate, error)
}

const (
	// rerankAccept is the minimum cross-encoder score for trusting the top
	// reranked document alone.
	rerankAccept = 0.1
	// maxClarifyOptions caps the numbered list shown for disambiguation.
	maxClarifyOptions = 5
	summarySize       = 3
)

type contextAction int

const (
	actionSave contextAction = iota
	actionRecall
)

// interactionContext remembers the outcome of the last successful Save or
// Recall so a pronoun-free follow-up can still find its target.
type interactionContext struct {
	action   contextAction
	id       int64
	content  string
	entities []string
}

// Deps are the orchestrator's collaborators. Reranker may be nil.
type Deps struct {
	Facts      core.FactRepository
	Index      core.VectorIndex
	Engine     Recaller
	Completer  core.Completer
	Embedder   core.Embedder
	Reranker   core.Reranker
	Classifier core.Classifier
	Entities   core.EntityExtractor
}

// Orchestrator is the top-level dispatch loop. Conversation state (history,
// reference context, pending action) is process-wide and mutex-guarded: the
// design assumes a single active conversation thread. No lock is held across
// a call to a collaborator.
type Orchestrator struct {
	facts      core.FactRepository
	index      core.VectorIndex
	engine     Recaller
	completer  core.Completer
	embedder   core.Embedder
	reranker   core.Reranker
	classifier core.Classifier
	entities   core.EntityExtractor

	historySize int

	mu        sync.Mutex
	history   []string
	lastCtx   *interactionContext
	pending   *pendingAction
	lastQuery string
	lastReply string
}

func New(deps Deps, historySize int) *Orchestrator {
	return &Orchestrator{
		facts:       deps.Facts,
		index:       deps.Index,
		engine:      deps.Engine,
		completer:   deps.Completer,
		embedder:    deps.Embedder,
		reranker:    deps.Reranker,
		classifier:  deps.Classifier,
		entities:    deps.Entities,
		historySize: historySize,
	}
}

// Dispatch routes one user utterance and returns the assistant's reply.
// Fatal collaborator errors are logged and returned; the transports render
// them as an opaque failure message.
func (o *Orchestrator) Dispatch(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return replyRouterConfused, nil
	}

	reply, err := o.route(ctx, text)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("utterance", text).Msg("dispatch failed")
		return "", err
	}

	o.appendHistory(text, reply)
	return reply, nil
}

func (o *Orchestrator) route(ctx context.Context, text string) (string, error) {
	logger := log.FromCtx(ctx)

	// A pending action always wins: whatever the user typed is the reply
	// to the operation awaiting confirmation.
	if p := o.takePending(); p != nil {
		logger.Debug().Msg("routing to pending action")
		return o.resolvePending(ctx, p, text)
	}

	// Corrections to a just-saved fact are auto-applied, not re-confirmed.
	if hasCorrectionPrefix(text) {
		if ic := o.snapshotContext(); ic != nil && ic.action == actionSave {
			logger.Debug().Int64("id", ic.id).Msg("correction heuristic hit")
			return o.applyModify(ctx, ic.id, text)
		}
	}

	switch {
	case containsAny(text, deleteKeywords):
		logger.Debug().Msg("delete keyword hit")
		return o.handleDelete(ctx, text)
	case containsAny(text, modifyKeywords):
		logger.Debug().Msg("modify keyword hit")
		return o.handleModify(ctx, text)
	case containsAny(text, chitChatKeywords):
		return replyChitChat, nil
	}

	intent, err := o.classifier.ClassifyIntent(ctx, text)
	if err != nil {
		logger.Warn().Err(err).Msg("intent micromodel failed, deferring to router")
		intent = core.IntentUnknown
	}
	switch intent {
	case core.IntentQuestion:
		return o.handleRecall(ctx, text)
	case core.IntentStatement:
		return o.handleSave(ctx, text)
	}

	route, err := runRouter(ctx, o.completer, o.snapshotHistory(), text)
	if err != nil {
		return "", err
	}
	logger.Debug().Str("route", route).Msg("router fallback decided")
	switch route {
	case routeSave:
		return o.handleSave(ctx, text)
	case routeRecall:
		return o.handleRecall(ctx, text)
	case routeModify:
		return o.handleModify(ctx, text)
	case routeDelete:
		return o.handleDelete(ctx, text)
	case routeConfirm:
		// nothing is pending at this point
		return replyRouterConfused, nil
	default:
		return replyChitChat, nil
	}
}

func (o *Orchestrator) handleSave(ctx context.Context, text string) (string, error) {
	fact, topics, err := runSaveExpert(ctx, o.completer, text)
	if err != nil {
		return "", err
	}

	entities, err := o.entities.ExtractEntities(ctx, fact)
	if err != nil {
		return "", fmt.Errorf("entity extraction: %w", err)
	}

	meta := core.FactMetadata{Topics: topics, Entities: entities, Tier: tierFor(fact)}
	id, err := o.facts.Insert(ctx, fact, meta)
	if err != nil {
		return "", err
	}

	// The index write is not transactional with the insert above; a failure
	// here leaves the record without a vector and is only logged upstream.
	vector, err := o.embedder.Embed(ctx, fact)
	if err != nil {
		return "", err
	}
	if err := o.index.Upsert(ctx, id, vector, fact, topics); err != nil {
		return "", err
	}

	o.setContext(&interactionContext{action: actionSave, id: id, content: fact})
	log.FromCtx(ctx).Info().Int64("id", id).Str("tier", meta.Tier).Msg("memory saved")
	return replySaved, nil
}

func (o *Orchestrator) handleRecall(ctx context.Context, query string) (string, error) {
	cands, err := o.engine.Recall(ctx, query, nil)
	if err != nil {
		return "", err
	}
	if len(cands) == 0 {
		return replyRecallMiss(query), nil
	}

	selected := cands[0]
	var reply string
	switch {
	case o.reranker != nil:
		docs := make([]string, len(cands))
		for i, c := range cands {
			docs[i] = c.Content
		}
		scores, err := o.reranker.Rank(ctx, query, docs)
		if err != nil {
			return "", err
		}
		best := 0
		for i, s := range scores {
			if s > scores[best] {
				best = i
			}
		}
		if scores[best] > rerankAccept {
			selected = cands[best]
			reply = selected.Content
		} else {
			reply = replyRecallSummary(topN(cands, summarySize))
		}
	case len(cands) == 1:
		reply = selected.Content
	default:
		reply = replyRecallSummary(topN(cands, summarySize))
	}

	// Entities come from the finally selected content, not the raw query:
	// that text is what a later pronoun will point at.
	entities, err := o.entities.ExtractEntities(ctx, selected.Content)
	if err != nil {
		return "", fmt.Errorf("entity extraction: %w", err)
	}

	o.setContext(&interactionContext{
		action:   actionRecall,
		id:       selected.ID,
		content:  selected.Content,
		entities: entities,
	})
	return reply, nil
}

func (o *Orchestrator) handleModify(ctx context.Context, text string) (string, error) {
	return o.selectTarget(ctx, text, intentModify)
}

func (o *Orchestrator) handleDelete(ctx context.Context, text string) (string, error) {
	// A pronoun right after a save or recall points at that exact record;
	// the reference is unambiguous, so no confirmation round-trip.
	if containsAny(text, pronounKeywords) {
		if ic := o.snapshotContext(); ic != nil {
			if err := o.deleteRecord(ctx, ic.id); err != nil {
				return "", err
			}
			return replyDeletedContext, nil
		}
	}
	return o.selectTarget(ctx, text, intentDelete)
}

// selectTarget finds the record a modify/delete refers to. Context entities
// are always consulted when present: short follow-ups rarely restate their
// subject.
func (o *Orchestrator) selectTarget(ctx context.Context, text string, intent pendingIntent) (string, error) {
	cands, err := o.engine.Recall(ctx, text, o.contextEntities())
	if err != nil {
		return "", err
	}

	switch {
	case len(cands) == 0:
		return replyNotFound, nil
	case len(cands) == 1:
		p := &pendingAction{id: cands[0].ID, content: cands[0].Content, request: text}
		if intent == intentDelete {
			p.kind = pendingDelete
			o.setPending(p)
			return replyDeletePrompt(p.content), nil
		}
		p.kind = pendingModify
		o.setPending(p)
		return replyModifyPrompt(p.content), nil
	default:
		options := topN(cands, maxClarifyOptions)
		o.setPending(&pendingAction{
			kind:    pendingClarify,
			options: options,
			intent:  intent,
			request: text,
		})
		return replyClarification(options), nil
	}
}

// applyModify rewrites record id per the instruction and updates both
// stores. Used by the correction heuristic and by confirmed modifications.
func (o *Orchestrator) applyModify(ctx context.Context, id int64, instruction string) (string, error) {
	rec, err := o.facts.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	newContent, err := runModifyExpert(ctx, o.completer, rec.Content, instruction)
	if err != nil {
		return "", err
	}

	if err := o.facts.Update(ctx, id, newContent); err != nil {
		return "", err
	}
	vector, err := o.embedder.Embed(ctx, newContent)
	if err != nil {
		return "", err
	}
	if err := o.index.Upsert(ctx, id, vector, newContent, rec.Metadata.Topics); err != nil {
		return "", err
	}

	o.setContext(&interactionContext{action: actionSave, id: id, content: newContent})
	log.FromCtx(ctx).Info().Int64("id", id).Msg("memory updated")
	return replyUpdated(newContent), nil
}

func (o *Orchestrator) deleteRecord(ctx context.Context, id int64) error {
	if err := o.facts.Delete(ctx, id); err != nil {
		return err
	}
	if err := o.index.Delete(ctx, id); err != nil {
		return err
	}
	o.clearContextFor(id)
	log.FromCtx(ctx).Info().Int64("id", id).Msg("memory deleted")
	return nil
}

func (o *Orchestrator) takePending() *pendingAction {
	o.mu.Lock()
	defer o.mu.Unlock()
	p := o.pending
	o.pending = nil
	return p
}

func (o *Orchestrator) setPending(p *pendingAction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = p
}

func (o *Orchestrator) snapshotContext() *interactionContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastCtx
}

func (o *Orchestrator) setContext(ic *interactionContext) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastCtx = ic
}

func (o *Orchestrator) clearContextFor(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastCtx != nil && o.lastCtx.id == id {
		o.lastCtx = nil
	}
}

func (o *Orchestrator) contextEntities() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastCtx == nil || o.lastCtx.action != actionRecall {
		return nil
	}
	return o.lastCtx.entities
}

func (o *Orchestrator) appendHistory(userText, reply string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastQuery = userText
	o.lastReply = reply
	o.history = append(o.history, "User: "+userText, "Assistant: "+reply)
	if over := len(o.history) - o.historySize; over > 0 {
		o.history = o.history[over:]
	}
}

// LastInteraction returns the most recent successful (utterance, reply)
// pair, the default subject of a feedback entry.
func (o *Orchestrator) LastInteraction() (query, reply string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastQuery, o.lastReply
}

func (o *Orchestrator) snapshotHistory() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.history))
	copy(out, o.history)
	return out
}

func topN(cands []core.RankedCandidate, n int) []core.RankedCandidate {
	if len(cands) < n {
		n = len(cands)
	}
	return cands[:n]
}
