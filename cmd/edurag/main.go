// Command edurag answers questions from a directory of study notes and
// generates exam question papers from them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/edurag/internal/adapters/driven/ai"
	"github.com/custodia-labs/edurag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/edurag/internal/adapters/driven/notes/filesystem"
	"github.com/custodia-labs/edurag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/edurag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/edurag/internal/adapters/driven/storage/sqlite"
	vectormem "github.com/custodia-labs/edurag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/edurag/internal/adapters/driving/cli"
	"github.com/custodia-labs/edurag/internal/core/domain"
	"github.com/custodia-labs/edurag/internal/core/ports/driven"
	"github.com/custodia-labs/edurag/internal/core/services"
	"github.com/custodia-labs/edurag/internal/logger"
	"github.com/custodia-labs/edurag/internal/postprocessors"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	services.KeyLLMAPIKey:         "GROQ_API_KEY",
	services.KeyEmbedAPIKey:       "OPENAI_API_KEY",
	services.KeyStoragePostgreDSN: "EDURAG_POSTGRES_DSN",
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal.
	_ = godotenv.Load()

	configDir, err := file.DefaultDir()
	if err != nil {
		logger.Error("locating config directory: %v", err)
		return err
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		logger.Error("opening config: %v", err)
		return err
	}
	for key, env := range envBindings {
		configStore.BindEnv(key, env)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	cli.SetVersion(version)

	settings, err := settingsService.Get()
	if err != nil {
		logger.Error("reading settings: %v", err)
		return err
	}

	ctx := context.Background()
	storage, err := openStores(ctx, settings.Storage, filepath.Join(configDir, "data"))
	if err != nil {
		// Settings stay reachable so a broken backend can be fixed.
		logger.Error("%v", err)
		cli.SetServices(cli.Services{Settings: settingsService})
		return cli.Execute()
	}
	defer storage.release()

	aiResult, err := ai.Init(&settings.Embedding, &settings.LLM)
	if err != nil {
		logger.Error("%v", err)
		cli.SetServices(cli.Services{Settings: settingsService})
		return cli.Execute()
	}
	defer aiResult.Close()
	for _, w := range aiResult.Warnings {
		logger.Warn("%s", w)
	}

	pipeline, err := postprocessors.DefaultRegistry().BuildPipeline(settings.Index.PipelineConfig())
	if err != nil {
		logger.Error("building chunking pipeline: %v", err)
		return err
	}

	index := vectormem.New()
	defer index.Close()

	notes := filesystem.NewLoader(settings.Notes.Dir)
	retriever := services.NewRetriever(aiResult.EmbeddingService, index, pipeline, storage.index, notes,
		services.RetrieverConfig{
			TopK:         settings.Index.TopK,
			BatchSize:    settings.Index.BatchSize,
			EmbedTimeout: settings.Embedding.Timeout,
		})

	generator := services.NewGenerator(aiResult.LLMService, services.GeneratorConfig{
		MaxTokens:   settings.LLM.MaxTokens,
		Temperature: settings.LLM.Temperature,
		Timeout:     settings.LLM.Timeout,
		Backoff:     services.DefaultRetryBackoff,
	})

	if err := retriever.LoadPersisted(ctx); err != nil {
		logger.Debug("persisted index not loaded: %v", err)
	}

	papers := services.NewPaperAssembler(retriever, generator, storage.papers, services.PaperConfig{
		ContextK: settings.Paper.ContextK,
		TTL:      settings.Paper.TTL,
	})

	cli.SetServices(cli.Services{
		Ask:      services.NewAskService(retriever, generator, settings.Index.TopK),
		Paper:    papers,
		Index:    retriever,
		Status:   retriever,
		Settings: settingsService,
		Watcher:  filesystem.NewWatcher(settings.Notes.Dir, 0),
	})

	return cli.Execute()
}

// stores holds the persistence adapters selected by the storage backend.
type stores struct {
	index   driven.IndexStore
	papers  driven.PaperStore
	release func()
}

// openStores opens the configured backend. Postgres holds the index only;
// papers are short lived and stay in the local sqlite database.
func openStores(ctx context.Context, cfg domain.StorageSettings, dataDir string) (*stores, error) {
	switch cfg.Backend {
	case domain.StorageMemory:
		return &stores{
			index:   memory.NewIndexStore(),
			papers:  memory.NewPaperStore(),
			release: func() {},
		}, nil

	case domain.StoragePostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("storage.backend is postgres but no DSN is set (EDURAG_POSTGRES_DSN)")
		}
		pg, err := postgres.NewIndexStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		local, err := sqlite.NewStore(dataDir)
		if err != nil {
			pg.Close()
			return nil, fmt.Errorf("opening database: %w", err)
		}
		release := func() {
			pg.Close()
			local.Close()
		}
		return &stores{index: pg, papers: local.PaperStore(), release: release}, nil

	default:
		local, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return &stores{
			index:   local.IndexStore(),
			papers:  local.PaperStore(),
			release: func() { local.Close() },
		}, nil
	}
}
