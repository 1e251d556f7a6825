package pinecone

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/vector"
)

type VectorStore struct {
	log       *logger.Logger
	pc        *client
	indexName string
	indexHost string
	nsPrefix  string
}

var _ vector.Store = (*VectorStore)(nil)

// ConfigFromEnv reads PINECONE_API_KEY, PINECONE_INDEX_NAME,
// PINECONE_INDEX_HOST and PINECONE_NAMESPACE_PREFIX.
func ConfigFromEnv() Config {
	return Config{
		APIKey:          strings.TrimSpace(os.Getenv("PINECONE_API_KEY")),
		APIVersion:      strings.TrimSpace(os.Getenv("PINECONE_API_VERSION")),
		BaseURL:         strings.TrimSpace(os.Getenv("PINECONE_BASE_URL")),
		IndexName:       strings.TrimSpace(os.Getenv("PINECONE_INDEX_NAME")),
		IndexHost:       strings.TrimSpace(os.Getenv("PINECONE_INDEX_HOST")),
		NamespacePrefix: strings.TrimSpace(os.Getenv("PINECONE_NAMESPACE_PREFIX")),
	}
}

func NewVectorStore(ctx context.Context, log *logger.Logger, cfg Config) (*VectorStore, error) {
	return newVectorStore(ctx, log, cfg, nil)
}

func newVectorStore(ctx context.Context, log *logger.Logger, cfg Config, hc *http.Client) (*VectorStore, error) {
	pc, err := newClient(log, cfg, hc)
	if err != nil {
		return nil, err
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("missing PINECONE_INDEX_NAME")
	}
	nsPrefix := cfg.NamespacePrefix
	if nsPrefix == "" {
		nsPrefix = "onb"
	}

	host := cfg.IndexHost
	if host == "" {
		desc, err := pc.describeIndex(ctx, cfg.IndexName)
		if err != nil {
			return nil, fmt.Errorf("pinecone describe_index failed: %w", err)
		}
		host = strings.TrimSpace(desc.Host)
		log.Warn("PINECONE_INDEX_HOST not set; resolved via describe_index",
			"index_name", cfg.IndexName,
			"index_host", host,
		)
	}

	return &VectorStore{
		log:       log.With("service", "PineconeVectorStore"),
		pc:        pc,
		indexName: cfg.IndexName,
		indexHost: host,
		nsPrefix:  nsPrefix,
	}, nil
}

func (s *VectorStore) Upsert(ctx context.Context, namespace string, vectors []vector.Vector) error {
	if s == nil || len(vectors) == 0 {
		return nil
	}
	ns := s.qualifyNamespace(namespace)
	for _, batch := range vector.Batches(vectors, vector.MaxBatch) {
		wire := make([]wireVector, 0, len(batch))
		for _, v := range batch {
			if strings.TrimSpace(v.ID) == "" {
				return fmt.Errorf("pinecone upsert: vector id is required")
			}
			wire = append(wire, wireVector{ID: v.ID, Values: v.Values, Metadata: v.Metadata})
		}
		if _, err := doJSON[upsertResponse](s.pc, ctx, "upsert", http.MethodPost, dataURL(s.indexHost, "/vectors/upsert"),
			upsertRequest{Namespace: ns, Vectors: wire}); err != nil {
			return err
		}
	}
	return nil
}

func (s *VectorStore) Query(ctx context.Context, namespace string, q []float32, topK int, filter vector.Filter) ([]vector.Match, error) {
	if s == nil {
		return nil, fmt.Errorf("vector store unavailable")
	}
	if len(q) == 0 {
		return nil, fmt.Errorf("pinecone query: query vector required")
	}
	if topK <= 0 {
		topK = 10
	}
	resp, err := doJSON[queryResponse](s.pc, ctx, "query", http.MethodPost, dataURL(s.indexHost, "/query"), queryRequest{
		Namespace:       s.qualifyNamespace(namespace),
		Vector:          q,
		TopK:            topK,
		Filter:          translateFilter(filter),
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]vector.Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		out = append(out, vector.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].ID < out[j].ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

func (s *VectorStore) Fetch(ctx context.Context, namespace string, ids []string) ([]vector.Vector, error) {
	if s == nil {
		return nil, fmt.Errorf("vector store unavailable")
	}
	params := url.Values{}
	params.Set("namespace", s.qualifyNamespace(namespace))
	n := 0
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			params.Add("ids", id)
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	resp, err := doJSON[fetchResponse](s.pc, ctx, "fetch", http.MethodGet, dataURL(s.indexHost, "/vectors/fetch?"+params.Encode()), nil)
	if err != nil {
		return nil, err
	}
	out := make([]vector.Vector, 0, len(resp.Vectors))
	for _, id := range ids {
		if v, ok := resp.Vectors[strings.TrimSpace(id)]; ok {
			out = append(out, vector.Vector{ID: v.ID, Values: v.Values, Metadata: v.Metadata})
		}
	}
	return out, nil
}

func (s *VectorStore) DeleteIDs(ctx context.Context, namespace string, ids []string) error {
	if s == nil || len(ids) == 0 {
		return nil
	}
	_, err := doJSON[struct{}](s.pc, ctx, "delete", http.MethodPost, dataURL(s.indexHost, "/vectors/delete"), deleteRequest{
		Namespace: s.qualifyNamespace(namespace),
		IDs:       ids,
	})
	return err
}

func (s *VectorStore) DeleteByFilter(ctx context.Context, namespace string, filter vector.Filter) error {
	if s == nil {
		return nil
	}
	if len(filter) == 0 {
		return fmt.Errorf("pinecone delete: filter required")
	}
	_, err := doJSON[struct{}](s.pc, ctx, "delete", http.MethodPost, dataURL(s.indexHost, "/vectors/delete"), deleteRequest{
		Namespace: s.qualifyNamespace(namespace),
		Filter:    translateFilter(filter),
	})
	return err
}

func (s *VectorStore) Ping(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("vector store unavailable")
	}
	_, err := doJSON[statsResponse](s.pc, ctx, "describe_index_stats", http.MethodPost, dataURL(s.indexHost, "/describe_index_stats"), map[string]any{})
	return err
}

func (s *VectorStore) qualifyNamespace(ns string) string {
	ns = strings.TrimSpace(ns)
	if ns == "" {
		return s.nsPrefix
	}
	return s.nsPrefix + ":" + ns
}

// translateFilter maps equality filters to Pinecone's $eq / $in operators.
func translateFilter(filter vector.Filter) map[string]any {
	if len(filter) == 0 {
		return nil
	}
	out := make(map[string]any, len(filter))
	for k, v := range filter {
		if list, ok := v.([]string); ok {
			out[k] = map[string]any{"$in": list}
			continue
		}
		out[k] = map[string]any{"$eq": v}
	}
	return out
}
