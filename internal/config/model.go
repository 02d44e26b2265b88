package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/memobot/pkg/log"
)

// ModelConfig points at the sidecar model services. The reranker is optional:
// an empty URL disables reranking entirely.
type ModelConfig struct {
	LLMURL         string `env:"MEMOBOT_LLM_URL" envDefault:"http://localhost:8282"`
	EmbeddingURL   string `env:"MEMOBOT_EMBEDDING_URL" envDefault:"http://localhost:8181"`
	MicromodelsURL string `env:"MEMOBOT_MICROMODELS_URL" envDefault:"http://localhost:8484"`
	RerankerURL    string `env:"MEMOBOT_RERANKER_URL"`

	// Must match the similarity index's configured dimension.
	EmbeddingDim int `env:"MEMOBOT_EMBEDDING_DIM" envDefault:"1024"`

	// Embed a hypothetical answer document instead of the raw query on the
	// primary vector path.
	EnableHyDE bool `env:"MEMOBOT_ENABLE_HYDE" envDefault:"false"`
}

func NewModelConfig(ctx context.Context) *ModelConfig {
	c := &ModelConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse model config")
	}
	return c
}

func (c ModelConfig) RerankerEnabled() bool {
	return c.RerankerURL != ""
}
