package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by point lookups for ids that have no record.
var ErrNotFound = errors.New("memory record not found")

// FactRepository is the relational store: point lookups and mutations by id,
// plus the exact-match retrieval paths (keyword conjunction, entity tags).
type FactRepository interface {
	Insert(ctx context.Context, content string, meta FactMetadata) (int64, error)
	GetByID(ctx context.Context, id int64) (*MemoryRecord, error)
	Update(ctx context.Context, id int64, content string) error
	Delete(ctx context.Context, id int64) error

	// SearchKeywords returns records whose content contains every token.
	SearchKeywords(ctx context.Context, tokens []string, limit int) ([]MemoryRecord, error)
	// FilterByEntities returns records whose entity tags intersect the given set.
	FilterByEntities(ctx context.Context, entities []string, limit int) ([]MemoryRecord, error)
}

// VectorIndex is the similarity index side of the dual store.
type VectorIndex interface {
	Upsert(ctx context.Context, id int64, vector []float32, content string, topics []string) error
	Search(ctx context.Context, vector []float32, topK int, scoreThreshold float32) ([]ScoredPoint, error)
	Delete(ctx context.Context, id int64) error
}
