package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	apphttp "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/observability"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

const serviceName = "codebase-onboarder"

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  Clients
	Services Services
	Metrics  *observability.Metrics
	Router   *gin.Engine

	server       *apphttp.Server
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envLogMode())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading configuration...")
	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.LogMode != envLogMode() {
		if relog, err := logger.New(cfg.LogMode); err == nil {
			log.Sync()
			log = relog
		}
	}

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OTelEnabled,
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
		Endpoint:    cfg.OTelEndpoint,
		Headers:     cfg.OTelHeaders,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	})

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	clients, err := wireClients(ctx, log, cfg, metrics)
	if err != nil {
		_ = shutdown(ctx)
		log.Sync()
		return nil, err
	}

	services := wireServices(log, cfg, clients)
	handlers := wireHandlers(log, services, metrics)
	rcfg := routerConfig(log, cfg, services, handlers, metrics)
	server := apphttp.NewServer(rcfg)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Services:     services,
		Metrics:      metrics,
		Router:       server.Engine,
		server:       server,
		otelShutdown: shutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests for
// up to ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Run(a.Cfg.Addr())
	}()
	a.Log.Info("Server listening", "addr", a.Cfg.Addr())

	select {
	case <-ctx.Done():
		a.Log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Log.Warn("Server shutdown incomplete", "error", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
