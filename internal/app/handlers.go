package app

import (
	apphttp "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http"
	httpH "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http/handlers"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/observability"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

type Handlers struct {
	Repository *httpH.RepositoryHandler
	Tutorial   *httpH.TutorialHandler
	Session    *httpH.SessionHandler
	Search     *httpH.SearchHandler
	Health     *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, services Services, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Repository: httpH.NewRepositoryHandler(services.Ingestion, services.Storage, metrics),
		Tutorial:   httpH.NewTutorialHandler(services.Tutorials, metrics),
		Session:    httpH.NewSessionHandler(services.Sessions, services.Workspace, services.Storage),
		Search:     httpH.NewSearchHandler(services.Storage),
		Health:     httpH.NewHealthHandler(services.Storage, metrics),
	}
}

func routerConfig(log *logger.Logger, cfg Config, services Services, handlers Handlers, metrics *observability.Metrics) apphttp.RouterConfig {
	return apphttp.RouterConfig{
		Log:               log,
		ServiceName:       otelServiceName(cfg),
		CORSOrigins:       cfg.CORSOrigins,
		Metrics:           metrics,
		RateLimiter:       services.Storage,
		IngestRateLimit:   int64(cfg.IngestRateLimit),
		IngestWindow:      cfg.IngestWindow,
		RepositoryHandler: handlers.Repository,
		TutorialHandler:   handlers.Tutorial,
		SessionHandler:    handlers.Session,
		SearchHandler:     handlers.Search,
		HealthHandler:     handlers.Health,
	}
}

// otelgin is only mounted when tracing is on.
func otelServiceName(cfg Config) string {
	if !cfg.OTelEnabled {
		return ""
	}
	return serviceName
}
