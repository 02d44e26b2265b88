package core

import "context"

// Completer calls the constrained text-completion service. grammar is an
// optional GBNF grammar; when non-empty the service must produce output
// matching it. The returned string is the first choice's raw content.
type Completer interface {
	Complete(ctx context.Context, messages []Message, grammar string) (string, error)
}

// Embedder converts text to a fixed-dimension vector matching the
// similarity index configuration.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Reranker scores documents for relevance against a query. The result has
// one score per input document, in input order.
type Reranker interface {
	Rank(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Classifier is the synchronous micromodel capability: a question/statement
// intent label and an affirm/deny confirmation label.
type Classifier interface {
	ClassifyIntent(ctx context.Context, text string) (Intent, error)
	ClassifyConfirmation(ctx context.Context, text string) (Confirmation, error)
}

// EntityExtractor runs named-entity extraction over text.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]string, error)
}
