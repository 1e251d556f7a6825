package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

var ErrObjectNotFound = fmt.Errorf("blob object: %w", perrors.ErrNotFound)

// BlobStore is a single-bucket object store addressed by key path.
type BlobStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
	mode   ObjectStorageMode
}

func NewBlobStore(ctx context.Context, log *logger.Logger, cfg BlobConfig) (*BlobStore, error) {
	if err := ValidateBlobConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate blob config: %w", err)
	}
	client, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	serviceLog := log.With("service", "BlobStore")
	serviceLog.Info("Object storage initialized",
		"mode", cfg.Mode,
		"compatibility_fallback", cfg.CompatibilityFallback,
		"emulator_host", cfg.EmulatorHost,
		"bucket", cfg.Bucket,
	)
	return &BlobStore{log: serviceLog, client: client, bucket: cfg.Bucket, mode: cfg.Mode}, nil
}

func newStorageClientForMode(ctx context.Context, cfg BlobConfig) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer r.Close()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return b, nil
}

// Delete is idempotent; a missing object is not an error.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var keys []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}

func (s *BlobStore) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			return err
		}
	}
	s.log.Debug("deleted blob prefix", "prefix", prefix, "objects", len(keys))
	return nil
}

func (s *BlobStore) Ping(ctx context.Context) error {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	return err
}

func (s *BlobStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown; charset=utf-8"
	case ".txt", ".go", ".py", ".js", ".ts", ".rs", ".java", ".c", ".h":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
