package app

import (
	"context"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/observability"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/vector"
)

type instrumentedVectorStore struct {
	provider string
	inner    vector.Store
	metrics  *observability.Metrics
}

func instrumentVectorStore(provider string, inner vector.Store, metrics *observability.Metrics) vector.Store {
	if inner == nil || metrics == nil {
		return inner
	}
	return &instrumentedVectorStore{provider: provider, inner: inner, metrics: metrics}
}

func (s *instrumentedVectorStore) Upsert(ctx context.Context, namespace string, vectors []vector.Vector) error {
	start := time.Now()
	err := s.inner.Upsert(ctx, namespace, vectors)
	s.observe("upsert", err, start)
	return err
}

func (s *instrumentedVectorStore) Query(ctx context.Context, namespace string, q []float32, topK int, filter vector.Filter) ([]vector.Match, error) {
	start := time.Now()
	out, err := s.inner.Query(ctx, namespace, q, topK, filter)
	s.observe("query", err, start)
	return out, err
}

func (s *instrumentedVectorStore) Fetch(ctx context.Context, namespace string, ids []string) ([]vector.Vector, error) {
	start := time.Now()
	out, err := s.inner.Fetch(ctx, namespace, ids)
	s.observe("fetch", err, start)
	return out, err
}

func (s *instrumentedVectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	start := time.Now()
	err := s.inner.DeleteIDs(ctx, namespace, ids)
	s.observe("delete_ids", err, start)
	return err
}

func (s *instrumentedVectorStore) DeleteByFilter(ctx context.Context, namespace string, filter vector.Filter) error {
	start := time.Now()
	err := s.inner.DeleteByFilter(ctx, namespace, filter)
	s.observe("delete_by_filter", err, start)
	return err
}

func (s *instrumentedVectorStore) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *instrumentedVectorStore) observe(operation string, err error, start time.Time) {
	s.metrics.ObserveVectorOp(s.provider, operation, err == nil, time.Since(start))
}
