package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/memobot/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"MEMOBOT_RUNTIME_PATH" envDefault:".memobot"`

	// Transport flags
	EnableHTTP     bool   `env:"ENABLE_HTTP" envDefault:"true"`
	EnableTelegram bool   `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool   `env:"ENABLE_CLI" envDefault:"false"`
	HTTPAddr       string `env:"HTTP_ADDR" envDefault:":8383"`

	// Conversation context fed to fallback model calls, in turns.
	HistorySize int `env:"HISTORY_SIZE" envDefault:"10"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse app config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return resolveRuntimePath(c.RuntimePath)
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.GetRuntimePath(), "memobot.db")
}

func (c AppConfig) GetIndexPath() string {
	return filepath.Join(c.GetRuntimePath(), "index")
}

func (c AppConfig) GetFeedbackPath() string {
	return filepath.Join(c.GetRuntimePath(), "feedback.jsonl")
}
