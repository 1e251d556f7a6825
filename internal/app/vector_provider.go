package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/observability"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/pinecone"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/qdrant"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/vector"
)

var (
	newQdrantVectorStore = func(ctx context.Context, log *logger.Logger, cfg qdrant.Config) (vector.Store, error) {
		return qdrant.NewVectorStore(ctx, log, cfg)
	}
	newPineconeVectorStore = func(ctx context.Context, log *logger.Logger, cfg pinecone.Config) (vector.Store, error) {
		return pinecone.NewVectorStore(ctx, log, cfg)
	}
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider    VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingQdrantURL   VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL   VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl  VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorInvalidQdrantDim   VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorConnectFailed      VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveVectorStore returns nil for provider "none" and for pinecone without
// an API key; the storage facade then runs with vector features disabled.
func resolveVectorStore(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (vector.Store, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.VectorProvider))
	switch provider {
	case "", VectorProviderNone:
		log.Info("Vector store disabled", "provider", VectorProviderNone)
		return nil, nil

	case VectorProviderQdrant:
		log.Info("Selecting vector store provider",
			"provider", provider,
			"qdrant_url", cfg.QdrantURL,
			"qdrant_collection", cfg.QdrantCollection,
			"qdrant_vector_dim", cfg.QdrantVectorDim,
		)
		vs, err := newQdrantVectorStore(ctx, log, qdrant.Config{
			URL:             strings.TrimSpace(cfg.QdrantURL),
			APIKey:          strings.TrimSpace(cfg.QdrantAPIKey),
			Collection:      strings.TrimSpace(cfg.QdrantCollection),
			NamespacePrefix: strings.TrimSpace(cfg.QdrantNamespacePrefix),
			VectorDim:       cfg.QdrantVectorDim,
		})
		if err != nil {
			classified := classifyQdrantError(err)
			log.Error("Vector store provider bootstrap failed", "provider", provider, "error_code", classified.Code, "error", err)
			return nil, classified
		}
		return instrumentVectorStore(provider, vs, metrics), nil

	case VectorProviderPinecone:
		if strings.TrimSpace(cfg.PineconeAPIKey) == "" {
			log.Warn("PINECONE_API_KEY not set; vector features disabled", "provider", provider)
			return nil, nil
		}
		vs, err := newPineconeVectorStore(ctx, log, pinecone.Config{
			APIKey:          strings.TrimSpace(cfg.PineconeAPIKey),
			IndexName:       strings.TrimSpace(cfg.PineconeIndexName),
			IndexHost:       strings.TrimSpace(cfg.PineconeIndexHost),
			NamespacePrefix: strings.TrimSpace(cfg.PineconeNamespacePrefix),
		})
		if err != nil {
			log.Error("Vector store provider bootstrap failed", "provider", provider, "error", err)
			return nil, &VectorProviderBootstrapError{Code: VectorProviderBootstrapErrorProviderInitFailed, Provider: provider, Cause: err}
		}
		return instrumentVectorStore(provider, vs, metrics), nil

	default:
		return nil, &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", provider),
		}
	}
}

func classifyQdrantError(err error) *VectorProviderBootstrapError {
	out := &VectorProviderBootstrapError{Code: VectorProviderBootstrapErrorConnectFailed, Provider: VectorProviderQdrant, Cause: err}
	var cerr *qdrant.ConfigError
	if !errors.As(err, &cerr) {
		return out
	}
	switch cerr.Code {
	case qdrant.ConfigErrorMissingURL:
		out.Code = VectorProviderBootstrapErrorMissingQdrantURL
	case qdrant.ConfigErrorInvalidURL:
		out.Code = VectorProviderBootstrapErrorInvalidQdrantURL
	case qdrant.ConfigErrorMissingCollection:
		out.Code = VectorProviderBootstrapErrorMissingQdrantColl
	case qdrant.ConfigErrorInvalidVectorDim:
		out.Code = VectorProviderBootstrapErrorInvalidQdrantDim
	default:
		out.Code = VectorProviderBootstrapErrorProviderInitFailed
	}
	return out
}
