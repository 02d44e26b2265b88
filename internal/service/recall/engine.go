package recall

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sandevgo/memobot/internal/core"
	"github.com/sandevgo/memobot/pkg/log"
)

const (
	pathLimit = 10
	// directThreshold filters the literal-query vector path; the expanded
	// path runs unfiltered and relies on fusion to demote weak hits.
	directThreshold = 0.5
)

const hydePrompt = "你是一个记忆助手。请根据用户的问题，写一句最有可能作为答案被记录下来的记忆内容。只输出这句话本身。"

// Engine runs hybrid retrieval over the dual store: two vector paths and a
// keyword path fused by reciprocal rank, then cut at the score cliff.
// Context entities short-circuit everything with exact matches.
type Engine struct {
	facts     core.FactRepository
	index     core.VectorIndex
	embedder  core.Embedder
	completer core.Completer
	tok       *Tokenizer
	hyde      bool
}

func NewEngine(facts core.FactRepository, index core.VectorIndex, embedder core.Embedder, completer core.Completer, tok *Tokenizer, hyde bool) *Engine {
	return &Engine{
		facts:     facts,
		index:     index,
		embedder:  embedder,
		completer: completer,
		tok:       tok,
		hyde:      hyde,
	}
}

// Recall retrieves candidates for the query. When contextEntities is
// non-empty the entity filter runs alone and its exact matches come back
// with score 1.0; otherwise the three retrieval paths run concurrently and
// any path failure fails the whole recall.
func (e *Engine) Recall(ctx context.Context, query string, contextEntities []string) ([]core.RankedCandidate, error) {
	logger := log.FromCtx(ctx)

	if len(contextEntities) > 0 {
		cands, err := e.entityFilter(ctx, contextEntities)
		if err != nil {
			return nil, err
		}
		if len(cands) > 0 {
			logger.Debug().Int("count", len(cands)).Msg("entity filter short-circuit")
			return cands, nil
		}
		logger.Debug().Msg("entity filter empty, falling back to hybrid retrieval")
	}

	tokens := e.tok.Keywords(query)

	var direct, expanded, keyword []core.RankedCandidate
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		direct, err = e.vectorPath(gctx, query, directThreshold, e.hyde)
		return err
	})
	g.Go(func() error {
		variants := Expand(query, tokens)
		if len(variants) == 0 {
			return nil
		}
		var err error
		expanded, err = e.vectorPath(gctx, strings.Join(variants, " "), 0, false)
		return err
	})
	g.Go(func() error {
		records, err := e.facts.SearchKeywords(gctx, tokens, pathLimit)
		if err != nil {
			return err
		}
		keyword = toCandidates(records)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := fuse(direct, expanded, keyword)
	kept := truncateAtDrop(fused)
	logger.Debug().
		Int("direct", len(direct)).
		Int("expanded", len(expanded)).
		Int("keyword", len(keyword)).
		Int("kept", len(kept)).
		Msg("hybrid retrieval fused")
	return kept, nil
}

func (e *Engine) vectorPath(ctx context.Context, query string, threshold float32, hyde bool) ([]core.RankedCandidate, error) {
	text := query
	if hyde {
		doc, err := e.completer.Complete(ctx, []core.Message{
			{Role: core.RoleSystem, Content: hydePrompt},
			{Role: core.RoleUser, Content: query},
		}, "")
		if err != nil {
			return nil, err
		}
		text = doc
	}

	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	points, err := e.index.Search(ctx, vector, pathLimit, threshold)
	if err != nil {
		return nil, err
	}

	cands := make([]core.RankedCandidate, 0, len(points))
	for _, p := range points {
		cands = append(cands, core.RankedCandidate{ID: p.ID, Content: p.Content, Score: p.Score})
	}
	return cands, nil
}

// entityFilter fetches records whose stored entity tags intersect the given
// set. Exact matches carry score 1.0.
func (e *Engine) entityFilter(ctx context.Context, entities []string) ([]core.RankedCandidate, error) {
	records, err := e.facts.FilterByEntities(ctx, entities, pathLimit)
	if err != nil {
		return nil, err
	}
	cands := make([]core.RankedCandidate, 0, len(records))
	for _, rec := range records {
		cands = append(cands, core.RankedCandidate{ID: rec.ID, Content: rec.Content, Score: 1.0})
	}
	return cands, nil
}

func toCandidates(records []core.MemoryRecord) []core.RankedCandidate {
	cands := make([]core.RankedCandidate, 0, len(records))
	for _, rec := range records {
		cands = append(cands, core.RankedCandidate{ID: rec.ID, Content: rec.Content})
	}
	return cands
}
