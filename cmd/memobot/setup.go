package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/memobot/internal/config"
	"github.com/sandevgo/memobot/internal/core"
	"github.com/sandevgo/memobot/internal/providers/embed"
	"github.com/sandevgo/memobot/internal/providers/llm"
	"github.com/sandevgo/memobot/internal/providers/micro"
	"github.com/sandevgo/memobot/internal/providers/rerank"
	"github.com/sandevgo/memobot/internal/service/orchestrator"
	"github.com/sandevgo/memobot/internal/service/recall"
	"github.com/sandevgo/memobot/internal/storage/sqlite"
	"github.com/sandevgo/memobot/internal/storage/vecindex"
	"github.com/sandevgo/memobot/internal/transport/cli"
	"github.com/sandevgo/memobot/internal/transport/httpapi"
	"github.com/sandevgo/memobot/internal/transport/telegram"
	"github.com/sandevgo/memobot/pkg/log"
	"github.com/sandevgo/memobot/pkg/retry"
	"github.com/sandevgo/memobot/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	modelCfg := config.NewModelConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(db.Close))
	facts := sqlite.NewFactRepo(db)

	index, err := vecindex.NewIndex(appCfg.GetIndexPath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize vector index")
	}

	// 3. Model clients
	completer := llm.NewClient(modelCfg.LLMURL)
	embedder := embed.NewClient(modelCfg.EmbeddingURL, modelCfg.EmbeddingDim)
	micros := micro.NewClient(modelCfg.MicromodelsURL)

	var reranker core.Reranker
	if modelCfg.RerankerEnabled() {
		reranker = rerank.NewClient(modelCfg.RerankerURL)
	}

	waitForSidecars(ctx, completer, embedder)

	// 4. Retrieval
	tokenizer, err := recall.NewTokenizer()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load tokenizer dictionaries")
	}
	engine := recall.NewEngine(facts, index, embedder, completer, tokenizer, modelCfg.EnableHyDE)

	// 5. Orchestrator
	orch := orchestrator.New(orchestrator.Deps{
		Facts:      facts,
		Index:      index,
		Engine:     engine,
		Completer:  completer,
		Embedder:   embedder,
		Reranker:   reranker,
		Classifier: micros,
		Entities:   micros,
	}, appCfg.HistorySize)

	feedback := orchestrator.NewFeedbackLog(appCfg.GetFeedbackPath())

	// 6. Transports
	transports, err := initTransports(ctx, appCfg, orch, feedback)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize transports")
	}
	services = append(services, transports...)

	return services
}

// waitForSidecars blocks until the completion and embedding services answer,
// with backoff. The process is useless without them.
func waitForSidecars(ctx context.Context, completer *llm.Client, embedder *embed.Client) {
	logger := log.FromCtx(ctx)
	retrier := retry.NewDefaultRetrier()

	if err := retrier.Do(ctx, func() error { return completer.Healthy(ctx) }); err != nil {
		logger.Fatal().Err(err).Msg("completion service is unreachable")
	}
	if err := retrier.Do(ctx, func() error { return embedder.Healthy(ctx) }); err != nil {
		logger.Fatal().Err(err).Msg("embedding service is unreachable")
	}
	logger.Info().Msg("model sidecars are ready")
}

func initTransports(
	ctx context.Context,
	cfg *config.AppConfig,
	orch *orchestrator.Orchestrator,
	feedback *orchestrator.FeedbackLog,
) ([]srv.Service, error) {
	var services []srv.Service

	if cfg.EnableHTTP {
		services = append(services, httpapi.NewServer(ctx, cfg.HTTPAddr, orch, feedback))
	}

	if cfg.EnableTelegram {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, orch)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if cfg.EnableCLI {
		services = append(services, cli.NewChat(orch))
	}

	return services, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
