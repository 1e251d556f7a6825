package app

import (
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/modules/ingestion"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/modules/tutorial"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/modules/workspace"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
)

type Services struct {
	Storage   *storage.Facade
	Ingestion *ingestion.Pipeline
	Tutorials *tutorial.Pipeline
	Sessions  *tutorial.SessionService
	Workspace *workspace.Materializer
}

func wireServices(log *logger.Logger, cfg Config, clients Clients) Services {
	log.Info("Wiring services...")

	var embedder storage.Embedder
	var generator tutorial.Generator
	if clients.OpenAI != nil {
		embedder = clients.OpenAI
		generator = tutorial.NewAIGenerator(clients.OpenAI)
	}

	store := storage.New(log, storage.Deps{
		Relational:     repos.NewSet(clients.DB.DB(), log),
		RelationalPing: clients.DB,
		KV:             clients.KV,
		Blob:           clients.Blob,
		Vector:         clients.Vector,
		Embedder:       embedder,
	})

	fetcher := workspace.NewFetcher(clients.GitHub, cfg.WorkspaceConcurrency, cfg.WorkspaceMaxFiles)

	return Services{
		Storage: store,
		Ingestion: ingestion.NewPipeline(log, clients.GitHub, store, ingestion.Config{
			Concurrency: cfg.IngestConcurrency,
			CommitLimit: cfg.IngestCommitLimit,
		}),
		Tutorials: tutorial.NewPipeline(tutorial.PipelineDeps{
			Log:       log,
			Source:    clients.GitHub,
			Fetcher:   fetcher,
			Store:     store,
			Generator: generator,
		}),
		Sessions:  tutorial.NewSessionService(log, store),
		Workspace: workspace.NewMaterializer(log, fetcher, store),
	}
}
