package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/gcp"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

var newBlobStore = gcp.NewBlobStore

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// blobConfig mirrors gcp.ResolveBlobConfigFromEnv: with no explicit mode, an
// emulator host alone selects emulator mode.
func blobConfig(cfg Config) gcp.BlobConfig {
	out := gcp.BlobConfig{
		EmulatorHost: strings.TrimSpace(cfg.StorageEmulatorHost),
		Bucket:       strings.TrimSpace(cfg.BlobBucket),
	}
	mode := gcp.ObjectStorageMode(strings.ToLower(strings.TrimSpace(cfg.ObjectStorageMode)))
	switch {
	case mode != "":
		out.Mode = mode
	case out.EmulatorHost != "":
		out.Mode = gcp.ObjectStorageModeGCSEmulator
		out.CompatibilityFallback = true
	default:
		out.Mode = gcp.ObjectStorageModeGCS
	}
	return out
}

func resolveBlobStore(ctx context.Context, log *logger.Logger, cfg Config) (*gcp.BlobStore, error) {
	bcfg := blobConfig(cfg)
	if err := gcp.ValidateBlobConfig(bcfg); err != nil {
		classified := classifyBlobConfigError(bcfg, err)
		log.Error("Object storage provider selection failed",
			"mode", bcfg.Mode,
			"compatibility_fallback", bcfg.CompatibilityFallback,
			"emulator_host", bcfg.EmulatorHost,
			"error_code", classified.Code,
			"error", err,
		)
		return nil, classified
	}
	store, err := newBlobStore(ctx, log, bcfg)
	if err != nil {
		return nil, &StorageProviderBootstrapError{
			Code:         StorageProviderBootstrapErrorConnectFailed,
			Mode:         string(bcfg.Mode),
			EmulatorHost: bcfg.EmulatorHost,
			Cause:        err,
		}
	}
	return store, nil
}

func classifyBlobConfigError(cfg gcp.BlobConfig, err error) *StorageProviderBootstrapError {
	out := &StorageProviderBootstrapError{
		Code:         StorageProviderBootstrapErrorInvalidMode,
		Mode:         string(cfg.Mode),
		EmulatorHost: cfg.EmulatorHost,
		Cause:        err,
	}
	var cerr *gcp.ConfigError
	if !errors.As(err, &cerr) {
		return out
	}
	switch cerr.Code {
	case gcp.ConfigErrorMissingBucket:
		out.Code = StorageProviderBootstrapErrorMissingBucket
	case gcp.ConfigErrorMissingEmulatorHost:
		out.Code = StorageProviderBootstrapErrorMissingEmulatorHost
	case gcp.ConfigErrorInvalidEmulatorHost:
		out.Code = StorageProviderBootstrapErrorInvalidEmulatorHost
	}
	return out
}
