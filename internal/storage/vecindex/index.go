package vecindex

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/sandevgo/memobot/internal/core"
)

const collectionName = "memos"

// Index is the similarity side of the dual store, backed by an embedded
// persistent vector collection. Embeddings are always computed by the caller,
// so the collection never needs an embedding function of its own.
type Index struct {
	col *chromem.Collection
}

func NewIndex(path string) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", collectionName, err)
	}

	return &Index{col: col}, nil
}

func (x *Index) Upsert(ctx context.Context, id int64, vector []float32, content string, topics []string) error {
	doc := chromem.Document{
		ID:        strconv.FormatInt(id, 10),
		Embedding: vector,
		Content:   content,
	}
	if len(topics) > 0 {
		doc.Metadata = map[string]string{"topics": strings.Join(topics, ",")}
	}

	if err := x.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("upsert point %d: %w", id, err)
	}
	return nil
}

func (x *Index) Search(ctx context.Context, vector []float32, topK int, scoreThreshold float32) ([]core.ScoredPoint, error) {
	count := x.col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	results, err := x.col.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	points := make([]core.ScoredPoint, 0, len(results))
	for _, res := range results {
		if res.Similarity < scoreThreshold {
			continue
		}
		id, err := strconv.ParseInt(res.ID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed point id %q: %w", res.ID, err)
		}
		points = append(points, core.ScoredPoint{
			ID:      id,
			Content: res.Content,
			Score:   float64(res.Similarity),
		})
	}
	return points, nil
}

func (x *Index) Delete(ctx context.Context, id int64) error {
	if err := x.col.Delete(ctx, nil, nil, strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("delete point %d: %w", id, err)
	}
	return nil
}
