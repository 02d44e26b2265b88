package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/sandevgo/memobot/internal/core"
)

type fakeFacts struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]core.MemoryRecord
}

func newFakeFacts() *fakeFacts {
	return &fakeFacts{records: make(map[int64]core.MemoryRecord)}
}

func (f *fakeFacts) Insert(ctx context.Context, content string, meta core.FactMetadata) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.records[f.nextID] = core.MemoryRecord{ID: f.nextID, Content: content, Metadata: meta}
	return f.nextID, nil
}

func (f *fakeFacts) GetByID(ctx context.Context, id int64) (*core.MemoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeFacts) Update(ctx context.Context, id int64, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return core.ErrNotFound
	}
	rec.Content = content
	f.records[id] = rec
	return nil
}

func (f *fakeFacts) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return core.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeFacts) SearchKeywords(ctx context.Context, tokens []string, limit int) ([]core.MemoryRecord, error) {
	return nil, nil
}

func (f *fakeFacts) FilterByEntities(ctx context.Context, entities []string, limit int) ([]core.MemoryRecord, error) {
	return nil, nil
}

type fakeIndex struct {
	mu       sync.Mutex
	upserted map[int64]string
	deleted  []int64
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{upserted: make(map[int64]string)}
}

func (f *fakeIndex) Upsert(ctx context.Context, id int64, vector []float32, content string, topics []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted[id] = content
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, topK int, threshold float32) ([]core.ScoredPoint, error) {
	return nil, nil
}

func (f *fakeIndex) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

// fakeRecaller serves all stored facts, newest last, or a fixed list.
type fakeRecaller struct {
	facts *fakeFacts
	cands []core.RankedCandidate
	err   error
}

func (f *fakeRecaller) Recall(ctx context.Context, query string, contextEntities []string) ([]core.RankedCandidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.cands != nil {
		return f.cands, nil
	}
	f.facts.mu.Lock()
	defer f.facts.mu.Unlock()
	var cands []core.RankedCandidate
	for id := int64(1); id <= f.facts.nextID; id++ {
		if rec, ok := f.facts.records[id]; ok {
			cands = append(cands, core.RankedCandidate{ID: rec.ID, Content: rec.Content, Score: 0.9})
		}
	}
	return cands, nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

// fakeCompleter answers by grammar: each constrained call has a distinct one.
type fakeCompleter struct {
	byGrammar map[string]string
	err       error
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []core.Message, grammar string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	out, ok := f.byGrammar[grammar]
	if !ok {
		return "", fmt.Errorf("unexpected completion call")
	}
	return out, nil
}

type fakeClassifier struct {
	intent       core.Intent
	intentErr    error
	confirmation core.Confirmation
	confirmErr   error
}

func (f *fakeClassifier) ClassifyIntent(ctx context.Context, text string) (core.Intent, error) {
	return f.intent, f.intentErr
}

func (f *fakeClassifier) ClassifyConfirmation(ctx context.Context, text string) (core.Confirmation, error) {
	return f.confirmation, f.confirmErr
}

type fakeNER struct {
	entities []string
}

func (f *fakeNER) ExtractEntities(ctx context.Context, text string) ([]string, error) {
	return f.entities, nil
}

type testHarness struct {
	orch       *Orchestrator
	facts      *fakeFacts
	index      *fakeIndex
	recaller   *fakeRecaller
	completer  *fakeCompleter
	classifier *fakeClassifier
}

func newTestHarness() *testHarness {
	facts := newFakeFacts()
	index := newFakeIndex()
	recaller := &fakeRecaller{facts: facts}
	completer := &fakeCompleter{byGrammar: map[string]string{}}
	classifier := &fakeClassifier{intent: core.IntentUnknown, confirmation: core.ConfirmUnknown}

	orch := New(Deps{
		Facts:      facts,
		Index:      index,
		Engine:     recaller,
		Completer:  completer,
		Embedder:   fakeEmbedder{},
		Classifier: classifier,
		Entities:   &fakeNER{entities: []string{"周五"}},
	}, 10)

	return &testHarness{
		orch:       orch,
		facts:      facts,
		index:      index,
		recaller:   recaller,
		completer:  completer,
		classifier: classifier,
	}
}

func TestDispatchChitChatKeyword(t *testing.T) {
	h := newTestHarness()

	reply, err := h.orch.Dispatch(context.Background(), "今天天气怎么样")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != replyChitChat {
		t.Errorf("reply = %q, want chit-chat response", reply)
	}
}

func TestDispatchSaveStatement(t *testing.T) {
	h := newTestHarness()
	h.classifier.intent = core.IntentStatement
	h.completer.byGrammar[extractionGrammar] = `{"fact": "周五下午3点开会", "metadata": {"topics": ["会议"]}}`

	reply, err := h.orch.Dispatch(context.Background(), "记一下周五下午3点开会")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != replySaved {
		t.Errorf("reply = %q, want %q", reply, replySaved)
	}

	rec, err := h.facts.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("saved record missing: %v", err)
	}
	if rec.Content != "周五下午3点开会" {
		t.Errorf("stored content = %q", rec.Content)
	}
	if h.index.upserted[1] != "周五下午3点开会" {
		t.Error("record missing from the similarity index")
	}
	if rec.Metadata.Tier != core.TierActive {
		t.Errorf("tier = %q, want active", rec.Metadata.Tier)
	}
}

func TestCorrectionAfterSave(t *testing.T) {
	h := newTestHarness()
	h.classifier.intent = core.IntentStatement
	h.completer.byGrammar[extractionGrammar] = `{"fact": "周五下午3点开会", "metadata": {"topics": ["会议"]}}`
	h.completer.byGrammar[rewriteGrammar] = `{"modified_text": "周五下午4点开会"}`

	ctx := context.Background()
	if _, err := h.orch.Dispatch(ctx, "记一下周五下午3点开会"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Correction is auto-applied, no confirmation round-trip.
	reply, err := h.orch.Dispatch(ctx, "不对，应该是4点")
	if err != nil {
		t.Fatalf("correction failed: %v", err)
	}
	if reply != replyUpdated("周五下午4点开会") {
		t.Errorf("reply = %q", reply)
	}
	if h.orch.pending != nil {
		t.Error("correction must not create a pending action")
	}

	rec, _ := h.facts.GetByID(ctx, 1)
	if rec.Content != "周五下午4点开会" {
		t.Errorf("record not rewritten: %q", rec.Content)
	}

	// The updated content is what a later recall returns.
	h.classifier.intent = core.IntentQuestion
	reply, err = h.orch.Dispatch(ctx, "周五几点开会")
	if err != nil {
		t.Fatalf("recall failed: %v", err)
	}
	if reply != "周五下午4点开会" {
		t.Errorf("recall reply = %q", reply)
	}
}

func TestDispatchRecallMiss(t *testing.T) {
	h := newTestHarness()
	h.classifier.intent = core.IntentQuestion

	reply, err := h.orch.Dispatch(context.Background(), "周五几点开会")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != replyRecallMiss("周五几点开会") {
		t.Errorf("reply = %q", reply)
	}
}

func TestDispatchRouterFallbackNoOp(t *testing.T) {
	h := newTestHarness()
	h.completer.byGrammar[routerGrammar] = `{"tool_to_call": "NoOp"}`

	reply, err := h.orch.Dispatch(context.Background(), "嗯嗯嗯")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != replyChitChat {
		t.Errorf("reply = %q, want chit-chat response", reply)
	}
}

func TestDeleteKeywordCreatesPending(t *testing.T) {
	h := newTestHarness()
	h.recaller.cands = []core.RankedCandidate{{ID: 4, Content: "周五下午3点开会", Score: 0.9}}

	reply, err := h.orch.Dispatch(context.Background(), "删除开会的记忆")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != replyDeletePrompt("周五下午3点开会") {
		t.Errorf("reply = %q", reply)
	}
	if h.orch.pending == nil || h.orch.pending.kind != pendingDelete || h.orch.pending.id != 4 {
		t.Errorf("pending = %+v, want delete confirmation for id 4", h.orch.pending)
	}

	// Nothing was deleted yet.
	if len(h.index.deleted) != 0 {
		t.Error("delete executed before confirmation")
	}
}

func TestModifyKeywordMultipleCandidatesClarifies(t *testing.T) {
	h := newTestHarness()
	h.recaller.cands = []core.RankedCandidate{
		{ID: 1, Content: "周五开会", Score: 0.9},
		{ID: 2, Content: "周一开会", Score: 0.8},
	}

	reply, err := h.orch.Dispatch(context.Background(), "修改开会时间")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != replyClarification(h.recaller.cands) {
		t.Errorf("reply = %q", reply)
	}
	if h.orch.pending == nil || h.orch.pending.kind != pendingClarify {
		t.Errorf("pending = %+v, want clarification", h.orch.pending)
	}
}

func TestPronounDeleteAfterRecall(t *testing.T) {
	h := newTestHarness()
	ctx := context.Background()
	h.facts.Insert(ctx, "周五下午3点开会", core.FactMetadata{})
	h.orch.setContext(&interactionContext{
		action:  actionRecall,
		id:      1,
		content: "周五下午3点开会",
	})

	// The pronoun resolves through the reference tracker; the delete runs
	// at once, without a confirmation round-trip.
	reply, err := h.orch.Dispatch(ctx, "忘掉它")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != replyDeletedContext {
		t.Errorf("reply = %q, want contextual delete acknowledgment", reply)
	}
	if h.orch.pending != nil {
		t.Error("contextual delete must not create a pending action")
	}
	if _, err := h.facts.GetByID(ctx, 1); err == nil {
		t.Error("record still in the relational store")
	}
	if len(h.index.deleted) != 1 || h.index.deleted[0] != 1 {
		t.Errorf("index deletions = %v, want [1]", h.index.deleted)
	}
	if h.orch.snapshotContext() != nil {
		t.Error("context still points at the deleted record")
	}
}

func TestPronounDeleteAfterSave(t *testing.T) {
	h := newTestHarness()
	h.classifier.intent = core.IntentStatement
	h.completer.byGrammar[extractionGrammar] = `{"fact": "周五下午3点开会", "metadata": {"topics": ["会议"]}}`

	ctx := context.Background()
	if _, err := h.orch.Dispatch(ctx, "记一下周五下午3点开会"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// A save context works just like a recall context for the pronoun.
	reply, err := h.orch.Dispatch(ctx, "删除这条")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != replyDeletedContext {
		t.Errorf("reply = %q, want contextual delete acknowledgment", reply)
	}
	if _, err := h.facts.GetByID(ctx, 1); err == nil {
		t.Error("record still in the relational store")
	}
}

func TestDispatchEmptyUtterance(t *testing.T) {
	h := newTestHarness()

	reply, err := h.orch.Dispatch(context.Background(), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != replyRouterConfused {
		t.Errorf("reply = %q", reply)
	}
}

func TestLastInteractionRetained(t *testing.T) {
	h := newTestHarness()

	if _, err := h.orch.Dispatch(context.Background(), "今天天气怎么样"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	query, reply := h.orch.LastInteraction()
	if query != "今天天气怎么样" || reply != replyChitChat {
		t.Errorf("last interaction = (%q, %q)", query, reply)
	}
}

func TestHistoryBounded(t *testing.T) {
	h := newTestHarness()

	for i := 0; i < 20; i++ {
		h.orch.appendHistory("你好", "回复")
	}
	if got := len(h.orch.snapshotHistory()); got != 10 {
		t.Errorf("history length = %d, want 10", got)
	}
}
