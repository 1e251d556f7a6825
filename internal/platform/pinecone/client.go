package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/ctxutil"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

type Config struct {
	APIKey          string
	APIVersion      string
	BaseURL         string
	IndexName       string
	IndexHost       string
	NamespacePrefix string
	Timeout         time.Duration
}

// HTTPError carries the status of a failed Pinecone call.
type HTTPError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("pinecone %s http %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int { return e.StatusCode }

type client struct {
	log  *logger.Logger
	cfg  Config
	http *http.Client
}

func newClient(log *logger.Logger, cfg Config, hc *http.Client) (*client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing Pinecone API key")
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = "2025-10"
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.pinecone.io"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &client{log: log.With("client", "PineconeClient"), cfg: cfg, http: hc}, nil
}

type indexDescription struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

func (c *client) describeIndex(ctx context.Context, indexName string) (*indexDescription, error) {
	indexName = strings.TrimSpace(indexName)
	if indexName == "" {
		return nil, fmt.Errorf("indexName required")
	}
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/indexes/" + url.PathEscape(indexName)
	out, err := doJSON[indexDescription](c, ctx, "describe_index", http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Host) == "" {
		return nil, fmt.Errorf("pinecone describe_index returned empty host")
	}
	return out, nil
}

type wireVector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []wireVector `json:"vectors"`
	Namespace string       `json:"namespace,omitempty"`
}

type upsertResponse struct {
	UpsertedCount int64 `json:"upsertedCount"`
}

type queryRequest struct {
	Namespace       string         `json:"namespace,omitempty"`
	Vector          []float32      `json:"vector,omitempty"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeValues   bool           `json:"includeValues,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata,omitempty"`
}

type queryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type queryResponse struct {
	Matches []queryMatch `json:"matches"`
}

type fetchResponse struct {
	Vectors map[string]wireVector `json:"vectors"`
}

type deleteRequest struct {
	IDs       []string       `json:"ids,omitempty"`
	Filter    map[string]any `json:"filter,omitempty"`
	Namespace string         `json:"namespace,omitempty"`
}

type statsResponse struct {
	Dimension        int   `json:"dimension"`
	TotalVectorCount int64 `json:"totalVectorCount"`
}

// dataURL accepts a bare index host or one with an explicit scheme.
func dataURL(host, path string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host + path
}

func doJSON[T any](c *client, ctx context.Context, op, method, u string, body any) (*T, error) {
	var rdr io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
		rdr = &buf
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, u, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Api-Key", c.cfg.APIKey)
	req.Header.Set("X-Pinecone-Api-Version", c.cfg.APIVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(raw)
		if len(snippet) > 1024 {
			snippet = snippet[:1024] + "..."
		}
		return nil, &HTTPError{Op: op, StatusCode: resp.StatusCode, Body: snippet}
	}

	var out T
	if len(bytes.TrimSpace(raw)) == 0 {
		return &out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("pinecone %s decode error: %w", op, err)
	}
	return &out, nil
}
