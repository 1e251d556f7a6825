package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http/handlers"
	httpMW "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http/middleware"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/observability"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	// Applied to ingest and refresh. A nil limiter disables limiting.
	RateLimiter     httpMW.RateLimiter
	IngestRateLimit int64
	IngestWindow    time.Duration

	RepositoryHandler *httpH.RepositoryHandler
	TutorialHandler   *httpH.TutorialHandler
	SessionHandler    *httpH.SessionHandler
	SearchHandler     *httpH.SearchHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/health", cfg.HealthHandler.Stores)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")

	if h := cfg.RepositoryHandler; h != nil {
		limit := httpMW.RateLimit(cfg.Log, cfg.RateLimiter, cfg.Metrics, "ingest", cfg.IngestRateLimit, cfg.IngestWindow)
		api.POST("/repositories", limit, h.Ingest)
		api.GET("/repositories", h.List)
		api.GET("/repositories/:owner/:name", h.Get)
		api.GET("/repositories/:owner/:name/status", h.Status)
		api.POST("/repositories/:owner/:name/refresh", limit, h.Refresh)
		api.GET("/repositories/:owner/:name/commits", h.ListCommits)
		api.GET("/repositories/:owner/:name/commits/:sha", h.GetCommit)
		api.GET("/repositories/:owner/:name/commits/:sha/diff", h.GetDiff)
	}

	if h := cfg.TutorialHandler; h != nil {
		api.POST("/repositories/:owner/:name/commits/:sha/tutorials", h.Generate)
		api.GET("/repositories/:owner/:name/commits/:sha/tutorials", h.ListForCommit)
		api.GET("/tutorials/:tutorial_id", h.Get)
	}

	if h := cfg.SearchHandler; h != nil {
		api.GET("/repositories/:owner/:name/commits/:sha/similar", h.SimilarCommits)
		api.GET("/repositories/:owner/:name/code/similar", h.RelatedCode)
		api.GET("/search", h.Search)
	}

	if h := cfg.SessionHandler; h != nil {
		api.POST("/tutorials/:tutorial_id/sessions", h.Start)
		api.GET("/sessions/:session_id", h.Get)
		api.GET("/sessions/:session_id/state", h.State)
		api.POST("/sessions/:session_id/next", h.Next)
		api.POST("/sessions/:session_id/previous", h.Previous)
		api.POST("/sessions/:session_id/complete", h.Complete)
		api.POST("/sessions/:session_id/workspace", h.Workspace)
		api.GET("/sessions/:session_id/memory", h.Memory)
		api.POST("/sessions/:session_id/memory", h.AppendMemory)
		api.POST("/workspaces", h.Materialize)
	}

	return r
}
