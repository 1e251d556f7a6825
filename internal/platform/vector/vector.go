// Package vector holds the provider-neutral vector index contract shared by
// the qdrant and pinecone adapters.
package vector

import (
	"context"
	"fmt"

	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
)

// MaxBatch is the largest upsert sent in one request.
const MaxBatch = 100

var ErrDisabled = fmt.Errorf("vector index disabled: %w", perrors.ErrUnavailable)

type Vector struct {
	ID       string
	Values   []float32
	Metadata map[string]any
}

type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Filter matches metadata by equality. A []string value matches any element.
type Filter map[string]any

type Store interface {
	Upsert(ctx context.Context, namespace string, vectors []Vector) error
	Query(ctx context.Context, namespace string, q []float32, topK int, filter Filter) ([]Match, error)
	Fetch(ctx context.Context, namespace string, ids []string) ([]Vector, error)
	DeleteIDs(ctx context.Context, namespace string, ids []string) error
	DeleteByFilter(ctx context.Context, namespace string, filter Filter) error
	Ping(ctx context.Context) error
}

// Batches splits vs into consecutive chunks of at most size.
func Batches(vs []Vector, size int) [][]Vector {
	if size <= 0 {
		size = MaxBatch
	}
	var out [][]Vector
	for start := 0; start < len(vs); start += size {
		end := start + size
		if end > len(vs) {
			end = len(vs)
		}
		out = append(out, vs[start:end])
	}
	return out
}

// Noop is used when no provider is configured. Writes are dropped and reads
// fail with ErrDisabled.
type Noop struct{}

func (Noop) Upsert(context.Context, string, []Vector) error { return nil }
func (Noop) Query(context.Context, string, []float32, int, Filter) ([]Match, error) {
	return nil, ErrDisabled
}
func (Noop) Fetch(context.Context, string, []string) ([]Vector, error) { return nil, ErrDisabled }
func (Noop) DeleteIDs(context.Context, string, []string) error         { return nil }
func (Noop) DeleteByFilter(context.Context, string, Filter) error      { return nil }
func (Noop) Ping(context.Context) error                                { return nil }
