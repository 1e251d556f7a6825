package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/db"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/envutil"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

const (
	VectorProviderNone     = "none"
	VectorProviderQdrant   = "qdrant"
	VectorProviderPinecone = "pinecone"
)

// Config is read from the environment first. When APP_CONFIG_FILE names a
// YAML file, every key present in it overrides the env value.
type Config struct {
	Port            string        `yaml:"port"`
	LogMode         string        `yaml:"log_mode"`
	Environment     string        `yaml:"environment"`
	Version         string        `yaml:"version"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	DatabaseDriver   string `yaml:"database_driver"`
	DatabaseDSN      string `yaml:"database_dsn"`
	PostgresHost     string `yaml:"postgres_host"`
	PostgresPort     string `yaml:"postgres_port"`
	PostgresUser     string `yaml:"postgres_user"`
	PostgresPassword string `yaml:"postgres_password"`
	PostgresName     string `yaml:"postgres_name"`
	PostgresSSLMode  string `yaml:"postgres_sslmode"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	ObjectStorageMode   string `yaml:"object_storage_mode"`
	StorageEmulatorHost string `yaml:"storage_emulator_host"`
	BlobBucket          string `yaml:"blob_bucket"`

	VectorProvider          string `yaml:"vector_provider"`
	QdrantURL               string `yaml:"qdrant_url"`
	QdrantAPIKey            string `yaml:"qdrant_api_key"`
	QdrantCollection        string `yaml:"qdrant_collection"`
	QdrantNamespacePrefix   string `yaml:"qdrant_namespace_prefix"`
	QdrantVectorDim         int    `yaml:"qdrant_vector_dim"`
	PineconeAPIKey          string `yaml:"pinecone_api_key"`
	PineconeIndexName       string `yaml:"pinecone_index_name"`
	PineconeIndexHost       string `yaml:"pinecone_index_host"`
	PineconeNamespacePrefix string `yaml:"pinecone_namespace_prefix"`

	GitHubToken     string `yaml:"github_token"`
	GitHubBaseURL   string `yaml:"github_base_url"`
	GitHubUserAgent string `yaml:"github_user_agent"`

	OpenAIAPIKey     string `yaml:"openai_api_key"`
	OpenAIBaseURL    string `yaml:"openai_base_url"`
	OpenAIModel      string `yaml:"openai_model"`
	OpenAIEmbedModel string `yaml:"openai_embed_model"`

	IngestCommitLimit    int `yaml:"ingest_commit_limit"`
	IngestConcurrency    int `yaml:"ingest_concurrency"`
	WorkspaceConcurrency int `yaml:"workspace_concurrency"`
	WorkspaceMaxFiles    int `yaml:"workspace_max_files"`

	CORSOrigins     []string      `yaml:"cors_origins"`
	IngestRateLimit int           `yaml:"ingest_rate_limit"`
	IngestWindow    time.Duration `yaml:"ingest_rate_window"`
	MetricsEnabled  bool          `yaml:"metrics_enabled"`

	OTelEnabled     bool    `yaml:"otel_enabled"`
	OTelEndpoint    string  `yaml:"otel_endpoint"`
	OTelHeaders     string  `yaml:"otel_headers"`
	OTelInsecure    bool    `yaml:"otel_insecure"`
	OTelSampleRatio float64 `yaml:"otel_sample_ratio"`
}

func configFromEnv() Config {
	return Config{
		Port:            envutil.String("PORT", "8080"),
		LogMode:         envLogMode(),
		Environment:     envutil.String("APP_ENV", "local"),
		Version:         envutil.String("APP_VERSION", "dev"),
		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second),

		DatabaseDriver:   strings.ToLower(envutil.String("DATABASE_DRIVER", db.DriverPostgres)),
		DatabaseDSN:      envutil.String("DATABASE_DSN", ""),
		PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
		PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
		PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
		PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
		PostgresName:     envutil.String("POSTGRES_NAME", "onboarder"),
		PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),

		RedisAddr:     envutil.String("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisDB:       envutil.Int("REDIS_DB", 0),

		ObjectStorageMode:   envutil.String("OBJECT_STORAGE_MODE", ""),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		BlobBucket:          envutil.String("BLOB_GCS_BUCKET_NAME", ""),

		VectorProvider:          strings.ToLower(envutil.String("VECTOR_PROVIDER", VectorProviderNone)),
		QdrantURL:               envutil.String("QDRANT_URL", ""),
		QdrantAPIKey:            envutil.String("QDRANT_API_KEY", ""),
		QdrantCollection:        envutil.String("QDRANT_COLLECTION", "onboarder"),
		QdrantNamespacePrefix:   envutil.String("QDRANT_NAMESPACE_PREFIX", "onb"),
		QdrantVectorDim:         envutil.Int("QDRANT_VECTOR_DIM", 0),
		PineconeAPIKey:          envutil.String("PINECONE_API_KEY", ""),
		PineconeIndexName:       envutil.String("PINECONE_INDEX_NAME", ""),
		PineconeIndexHost:       envutil.String("PINECONE_INDEX_HOST", ""),
		PineconeNamespacePrefix: envutil.String("PINECONE_NAMESPACE_PREFIX", ""),

		GitHubToken:     envutil.String("GITHUB_TOKEN", ""),
		GitHubBaseURL:   envutil.String("GITHUB_API_BASE_URL", ""),
		GitHubUserAgent: envutil.String("GITHUB_USER_AGENT", ""),

		OpenAIAPIKey:     envutil.String("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    envutil.String("OPENAI_BASE_URL", ""),
		OpenAIModel:      envutil.String("OPENAI_MODEL", ""),
		OpenAIEmbedModel: envutil.String("OPENAI_EMBED_MODEL", ""),

		IngestCommitLimit:    envutil.Int("INGEST_COMMIT_LIMIT", 20),
		IngestConcurrency:    envutil.Int("INGEST_CONCURRENCY", 1),
		WorkspaceConcurrency: envutil.Int("WORKSPACE_FETCH_CONCURRENCY", 4),
		WorkspaceMaxFiles:    envutil.Int("WORKSPACE_MAX_FILES", 300),

		CORSOrigins:     envutil.List("CORS_ALLOWED_ORIGINS", nil),
		IngestRateLimit: envutil.Int("INGEST_RATE_LIMIT", 10),
		IngestWindow:    envutil.Duration("INGEST_RATE_WINDOW", time.Minute),
		MetricsEnabled:  envutil.Bool("METRICS_ENABLED", true),

		OTelEnabled:     envutil.Bool("OTEL_ENABLED", false),
		OTelEndpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelHeaders:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
		OTelInsecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
		OTelSampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1),
	}
}

// envLogMode is resolved before LoadConfig. A different log_mode in the
// config file rebuilds the logger afterwards.
func envLogMode() string {
	return envutil.String("LOG_MODE", "development")
}

// LoadConfig reads the environment, applies the optional YAML overlay and
// validates the result.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := configFromEnv()
	if path := envutil.String("APP_CONFIG_FILE", ""); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return Config{}, err
		}
		if log != nil {
			log.Info("Applied config file", "path", path)
		}
	}
	cfg.VectorProvider = strings.ToLower(strings.TrimSpace(cfg.VectorProvider))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("invalid DATABASE_DRIVER=%q (allowed: postgres, sqlite)", c.DatabaseDriver)
	}
	switch c.VectorProvider {
	case VectorProviderNone, VectorProviderQdrant, VectorProviderPinecone:
	default:
		return fmt.Errorf("invalid VECTOR_PROVIDER=%q (allowed: none, qdrant, pinecone)", c.VectorProvider)
	}
	if c.IngestCommitLimit <= 0 {
		return fmt.Errorf("INGEST_COMMIT_LIMIT must be positive, got %d", c.IngestCommitLimit)
	}
	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATIO must be within [0,1], got %v", c.OTelSampleRatio)
	}
	return nil
}

func (c Config) Addr() string {
	port := strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
