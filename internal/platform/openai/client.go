package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/httpx"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/ctxutil"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/envutil"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/promptstyle"
)

// Client is the OpenAI surface used by tutorial generation and vector indexing.
type Client interface {
	GenerateText(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	EmbedModel string
	Timeout    time.Duration
	MaxRetries int
}

// ConfigFromEnv reads OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL,
// OPENAI_EMBED_MODEL, OPENAI_TIMEOUT_SECONDS and OPENAI_MAX_RETRIES.
func ConfigFromEnv() Config {
	return Config{
		APIKey:     envutil.String("OPENAI_API_KEY", ""),
		BaseURL:    envutil.String("OPENAI_BASE_URL", ""),
		Model:      envutil.String("OPENAI_MODEL", ""),
		EmbedModel: envutil.String("OPENAI_EMBED_MODEL", ""),
		Timeout:    envutil.Duration("OPENAI_TIMEOUT_SECONDS", 0),
		MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", -1),
	}
}

type client struct {
	log         *logger.Logger
	baseURL     string
	apiKey      string
	model       string
	embedModel  string
	httpClient  *http.Client
	maxRetries  int
	baseBackoff time.Duration

	// Models that rejected the temperature parameter are remembered and the
	// parameter is omitted for them afterwards.
	noTempMu   sync.RWMutex
	noTempSeen map[string]time.Time
	noTempTTL  time.Duration
}

func NewClient(log *logger.Logger, cfg Config, hc *http.Client) (Client, error) {
	return newClient(log, cfg, hc)
}

func newClient(log *logger.Logger, cfg Config, hc *http.Client) (*client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-3-small"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 3
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		embedModel:  cfg.EmbedModel,
		httpClient:  hc,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: time.Second,
		noTempSeen:  map[string]time.Time{},
		noTempTTL:   24 * time.Hour,
	}, nil
}

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) modelIsNoTemp(model string) bool {
	key := strings.ToLower(strings.TrimSpace(model))
	c.noTempMu.RLock()
	seenAt, ok := c.noTempSeen[key]
	c.noTempMu.RUnlock()
	return ok && time.Since(seenAt) < c.noTempTTL
}

func (c *client) noteNoTempModel(model string) {
	c.noTempMu.Lock()
	c.noTempSeen[strings.ToLower(strings.TrimSpace(model))] = time.Now()
	c.noTempMu.Unlock()
	c.log.Warn("Model rejected temperature; omitting it from now on", "model", model)
}

func isUnsupportedTemperature(err error) bool {
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(he.Body)
	if !strings.Contains(msg, "temperature") {
		return false
	}
	for _, hint := range []string{"unsupported", "unknown parameter", "not supported", "does not support", "only the default"} {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

// do retries transient failures (timeouts, 408, 429, 5xx) with jittered
// exponential backoff, honouring Retry-After.
func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	ctx = ctxutil.Default(ctx)
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt >= c.maxRetries {
			return err
		}
		sleepFor := httpx.RetryAfterDuration(resp, httpx.Backoff(attempt, c.baseBackoff, 10*time.Second), 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string    `json:"model"`
	Input           []message `json:"input"`
	MaxOutputTokens int       `json:"max_output_tokens,omitempty"`
	Temperature     *float64  `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				out.WriteString(part.Text)
			}
		}
	}
	return out.String()
}

func (c *client) GenerateText(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	req := responsesRequest{
		Model: c.model,
		Input: []message{
			{Role: "system", Content: promptstyle.ApplySystem(system, "text")},
			{Role: "user", Content: user},
		},
		MaxOutputTokens: maxTokens,
	}
	if !c.modelIsNoTemp(c.model) {
		t := temperature
		req.Temperature = &t
	}

	var resp responsesResponse
	err := c.do(ctx, http.MethodPost, "/v1/responses", &req, &resp)
	if err != nil && req.Temperature != nil && isUnsupportedTemperature(err) {
		c.noteNoTempModel(req.Model)
		req.Temperature = nil
		err = c.do(ctx, http.MethodPost, "/v1/responses", &req, &resp)
	}
	if err != nil {
		return "", err
	}
	if resp.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", resp.Refusal)
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns one vector per input, in input order.
func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}
	clean := make([]string, len(inputs))
	for i, s := range inputs {
		if s = strings.TrimSpace(s); s == "" {
			s = " "
		}
		clean[i] = s
	}

	var resp embeddingsResponse
	if err := c.do(ctx, http.MethodPost, "/v1/embeddings", embeddingsRequest{Model: c.embedModel, Input: clean}, &resp); err != nil {
		return nil, err
	}
	out := make([][]float32, len(clean))
	for pos, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			idx = pos
		}
		if idx >= len(out) {
			continue
		}
		vec := make([]float32, len(d.Embedding))
		for j, f := range d.Embedding {
			vec[j] = float32(f)
		}
		out[idx] = vec
	}
	for i := range out {
		if len(out[i]) == 0 {
			return nil, fmt.Errorf("openai embeddings missing index %d: requested=%d returned=%d model=%s", i, len(clean), len(resp.Data), c.embedModel)
		}
	}
	return out, nil
}
