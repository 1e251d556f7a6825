// Package storage is the single entry point the pipelines use to reach the
// relational, key-value, blob and vector stores. The stores share no
// transactions; each method documents what it touches.
package storage

import (
	"context"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/data/repos"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/vector"
)

const (
	AnalysisTTL     = 24 * time.Hour
	SessionStateTTL = 8 * time.Hour
	TutorialTTL     = 7 * 24 * time.Hour
	RepoMetaTTL     = 6 * time.Hour
	MemoryTTL       = 8 * time.Hour

	MemoryMaxEntries = 20
	VectorNamespace  = "codebase"

	defaultProbeTimeout = 3 * time.Second
)

// KV is implemented by platform/redis.KVStore.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	PushCapped(ctx context.Context, key string, value []byte, max int, ttl time.Duration) error
	Range(ctx context.Context, key string) ([][]byte, error)
	Ping(ctx context.Context) error
}

// Blob is implemented by platform/gcp.BlobStore. Get on a missing key returns
// an error wrapping pkg/errors.ErrNotFound.
type Blob interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context, prefix string) ([]string, error)
	DeletePrefix(ctx context.Context, prefix string) error
	Ping(ctx context.Context) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Embedder turns text into vectors. Nil disables indexing and text search.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type Deps struct {
	Relational     *repos.Set
	RelationalPing Pinger
	KV             KV
	Blob           Blob
	Vector         vector.Store
	Embedder       Embedder
	ProbeTimeout   time.Duration
}

type Facade struct {
	log          *logger.Logger
	rel          *repos.Set
	relPing      Pinger
	kv           KV
	blob         Blob
	vec          vector.Store
	embedder     Embedder
	probeTimeout time.Duration
	now          func() time.Time
}

func New(log *logger.Logger, d Deps) *Facade {
	vec := d.Vector
	if vec == nil {
		vec = vector.Noop{}
	}
	timeout := d.ProbeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Facade{
		log:          log.With("service", "StorageFacade"),
		rel:          d.Relational,
		relPing:      d.RelationalPing,
		kv:           d.KV,
		blob:         d.Blob,
		vec:          vec,
		embedder:     d.Embedder,
		probeTimeout: timeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// CanEmbed reports whether vector indexing and text search are available.
func (f *Facade) CanEmbed() bool { return f.embedder != nil }
