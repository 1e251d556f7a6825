package qdrant

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	URL             string
	APIKey          string
	Collection      string
	NamespacePrefix string
	VectorDim       int
}

type ConfigErrorCode string

const (
	ConfigErrorMissingURL        ConfigErrorCode = "missing_url"
	ConfigErrorInvalidURL        ConfigErrorCode = "invalid_url"
	ConfigErrorMissingCollection ConfigErrorCode = "missing_collection"
	ConfigErrorInvalidVectorDim  ConfigErrorCode = "invalid_vector_dim"
)

type ConfigError struct {
	Code  ConfigErrorCode
	Value string
	Cause error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return "invalid qdrant config"
	}
	switch e.Code {
	case ConfigErrorMissingURL:
		return "QDRANT_URL is required"
	case ConfigErrorInvalidURL:
		return fmt.Sprintf("invalid QDRANT_URL=%q; expected absolute URL like http://qdrant:6333", e.Value)
	case ConfigErrorMissingCollection:
		return "QDRANT_COLLECTION is required"
	case ConfigErrorInvalidVectorDim:
		return fmt.Sprintf("invalid QDRANT_VECTOR_DIM=%q; expected positive integer", e.Value)
	default:
		return "invalid qdrant config"
	}
}

func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveConfigFromEnv reads QDRANT_URL, QDRANT_API_KEY, QDRANT_COLLECTION,
// QDRANT_NAMESPACE_PREFIX and QDRANT_VECTOR_DIM.
func ResolveConfigFromEnv() (Config, error) {
	cfg := Config{
		URL:             strings.TrimSpace(os.Getenv("QDRANT_URL")),
		APIKey:          strings.TrimSpace(os.Getenv("QDRANT_API_KEY")),
		Collection:      strings.TrimSpace(os.Getenv("QDRANT_COLLECTION")),
		NamespacePrefix: strings.TrimSpace(os.Getenv("QDRANT_NAMESPACE_PREFIX")),
	}
	if cfg.NamespacePrefix == "" {
		cfg.NamespacePrefix = "onb"
	}
	if rawDim := strings.TrimSpace(os.Getenv("QDRANT_VECTOR_DIM")); rawDim != "" {
		dim, err := strconv.Atoi(rawDim)
		if err != nil || dim <= 0 {
			return Config{}, &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: rawDim, Cause: err}
		}
		cfg.VectorDim = dim
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidateConfig checks a config. VectorDim 0 disables dimension checks.
func ValidateConfig(cfg Config) error {
	if cfg.URL == "" {
		return &ConfigError{Code: ConfigErrorMissingURL}
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
		return &ConfigError{Code: ConfigErrorInvalidURL, Value: cfg.URL, Cause: err}
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return &ConfigError{Code: ConfigErrorMissingCollection}
	}
	if cfg.VectorDim < 0 {
		return &ConfigError{Code: ConfigErrorInvalidVectorDim, Value: strconv.Itoa(cfg.VectorDim)}
	}
	return nil
}
