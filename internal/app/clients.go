package app

import (
	"context"
	"fmt"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/db"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/observability"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/gcp"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/github"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/openai"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/redis"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/vector"
)

type Clients struct {
	DB     *db.Service
	KV     *redis.KVStore
	Blob   *gcp.BlobStore
	Vector vector.Store
	GitHub *github.Client
	// OpenAI is nil without OPENAI_API_KEY. Tutorials then always use the
	// fallback generator and nothing is embedded.
	OpenAI openai.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	dbs, err := db.Open(log, db.Config{
		Driver:   cfg.DatabaseDriver,
		DSN:      cfg.DatabaseDSN,
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		Name:     cfg.PostgresName,
		SSLMode:  cfg.PostgresSSLMode,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init database: %w", err)
	}
	c.DB = dbs
	if err := dbs.AutoMigrateAll(); err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("database automigrate: %w", err)
	}

	kv, err := redis.NewKVStore(log, redis.Config{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		c.Close()
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	c.KV = kv

	blob, err := resolveBlobStore(ctx, log, cfg)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.Blob = blob

	vs, err := resolveVectorStore(ctx, log, cfg, metrics)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.Vector = vs

	c.GitHub = github.NewClient(log, github.Config{
		BaseURL:   cfg.GitHubBaseURL,
		Token:     cfg.GitHubToken,
		UserAgent: cfg.GitHubUserAgent,
	}, nil)
	if cfg.GitHubToken == "" {
		log.Warn("GITHUB_TOKEN not set; using unauthenticated GitHub rate limits")
	}

	if cfg.OpenAIAPIKey != "" {
		oc, err := openai.NewClient(log, openai.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			Model:      cfg.OpenAIModel,
			EmbedModel: cfg.OpenAIEmbedModel,
			MaxRetries: -1,
		}, nil)
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		c.OpenAI = oc
	} else {
		log.Warn("OPENAI_API_KEY not set; tutorials use the fallback generator and search is disabled")
	}

	return c, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Blob != nil {
		_ = c.Blob.Close()
	}
	if c.KV != nil {
		_ = c.KV.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
