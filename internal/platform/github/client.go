package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/envutil"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
)

const (
	DefaultBaseURL   = "https://api.github.com"
	DefaultUserAgent = "codebase-onboarder"
	apiVersion       = "2022-11-28"
	maxBodyBytes     = 16 << 20
)

type Config struct {
	BaseURL   string
	Token     string
	UserAgent string
	Timeout   time.Duration
}

// ConfigFromEnv reads GITHUB_TOKEN, GITHUB_API_BASE_URL, GITHUB_USER_AGENT and
// GITHUB_TIMEOUT_SECONDS.
func ConfigFromEnv() Config {
	return Config{
		BaseURL:   envutil.String("GITHUB_API_BASE_URL", DefaultBaseURL),
		Token:     envutil.String("GITHUB_TOKEN", ""),
		UserAgent: envutil.String("GITHUB_USER_AGENT", DefaultUserAgent),
		Timeout:   time.Duration(envutil.Int("GITHUB_TIMEOUT_SECONDS", 30)) * time.Second,
	}
}

// Client is a thin authenticated GitHub REST client. It never retries; a
// rate-limited call surfaces as *HTTPError.
type Client struct {
	log       *logger.Logger
	baseURL   string
	token     string
	userAgent string
	http      *http.Client
}

func NewClient(log *logger.Logger, cfg Config, httpClient *http.Client) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		log:       log.With("client", "github"),
		baseURL:   base,
		token:     strings.TrimSpace(cfg.Token),
		userAgent: ua,
		http:      httpClient,
	}
}

func (c *Client) GetRepository(ctx context.Context, owner, name string) (*RepoInfo, error) {
	var out RepoInfo
	err := c.getJSON(ctx, repoPath(owner, name), nil, &out)
	if err != nil {
		var he *HTTPError
		if errors.As(err, &he) {
			he.kind = ErrNotAccessible
			return nil, he
		}
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, name, err)
	}
	return &out, nil
}

// IsAccessible never errors.
func (c *Client) IsAccessible(ctx context.Context, owner, name string) bool {
	_, err := c.GetRepository(ctx, owner, name)
	return err == nil
}

// ListCommits returns commits newest first, as GitHub orders them.
func (c *Client) ListCommits(ctx context.Context, owner, name string, opts ListCommitsOptions) ([]CommitRecord, error) {
	q := url.Values{}
	if b := strings.TrimSpace(opts.Branch); b != "" {
		q.Set("sha", b)
	}
	if !opts.Since.IsZero() {
		q.Set("since", opts.Since.UTC().Format(time.RFC3339))
	}
	if !opts.Until.IsZero() {
		q.Set("until", opts.Until.UTC().Format(time.RFC3339))
	}
	q.Set("per_page", strconv.Itoa(ClampPerPage(opts.PerPage)))
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}

	var raw []ghCommit
	if err := c.getJSON(ctx, repoPath(owner, name)+"/commits", q, &raw); err != nil {
		return nil, err
	}
	out := make([]CommitRecord, 0, len(raw))
	for _, rc := range raw {
		out = append(out, rc.record())
	}
	return out, nil
}

// ClampPerPage bounds page size to GitHub's [1,100]; zero means the API default of 30.
func ClampPerPage(n int) int {
	switch {
	case n == 0:
		return 30
	case n < 1:
		return 1
	case n > 100:
		return 100
	default:
		return n
	}
}

func (c *Client) GetCommit(ctx context.Context, owner, name, sha string) (*CommitRecord, error) {
	var raw ghCommit
	if err := c.getJSON(ctx, repoPath(owner, name)+"/commits/"+url.PathEscape(sha), nil, &raw); err != nil {
		return nil, err
	}
	rec := raw.record()
	return &rec, nil
}

// GetTree lists the full tree at ref recursively.
func (c *Client) GetTree(ctx context.Context, owner, name, ref string) ([]TreeEntry, error) {
	q := url.Values{}
	q.Set("recursive", "1")
	var raw ghTree
	if err := c.getJSON(ctx, repoPath(owner, name)+"/git/trees/"+url.PathEscape(ref), q, &raw); err != nil {
		return nil, err
	}
	if raw.Truncated {
		c.log.Warn("tree listing truncated", "repo_id", owner+"/"+name, "ref", ref, "entries", len(raw.Tree))
	}
	return raw.Tree, nil
}

// GetFileContent returns decoded text for a file at ref.
func (c *Client) GetFileContent(ctx context.Context, owner, name, path, ref string) (string, error) {
	q := url.Values{}
	if ref != "" {
		q.Set("ref", ref)
	}
	body, err := c.get(ctx, repoPath(owner, name)+"/contents/"+escapePath(path), q)
	if err != nil {
		return "", err
	}
	return decodeContent(path, body)
}

func decodeContent(path string, body []byte) (string, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return "", fmt.Errorf("%w: %s", ErrNotAFile, path)
	}
	var fc ghContent
	if err := json.Unmarshal(trimmed, &fc); err != nil {
		return "", fmt.Errorf("decode content %s: %w", path, err)
	}
	switch fc.Type {
	case "dir", "submodule":
		return "", fmt.Errorf("%w: %s (%s)", ErrNotAFile, path, fc.Type)
	}
	switch fc.Encoding {
	case "base64":
		clean := strings.NewReplacer("\n", "", "\r", "").Replace(fc.Content)
		b, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return "", fmt.Errorf("decode base64 %s: %w", path, err)
		}
		return string(b), nil
	case "none":
		return "", fmt.Errorf("content for %s not inlined (size=%d)", path, fc.Size)
	default:
		return fc.Content, nil
	}
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	body, err := c.get(ctx, path, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("github decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("github GET %s read body: %w", path, err)
	}

	remaining, reset := rateLimit(resp.Header)
	c.log.Debug("github request",
		"path", path,
		"status", resp.StatusCode,
		"rate_remaining", remaining,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if remaining >= 0 && remaining < 10 {
		c.log.Warn("github rate limit nearly exhausted", "remaining", remaining, "reset", reset)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Method:             http.MethodGet,
			Path:               path,
			StatusCode:         resp.StatusCode,
			Body:               string(body),
			RateLimitRemaining: remaining,
			RateLimitReset:     reset,
			kind:               kindForStatus(resp.StatusCode),
		}
	}
	return body, nil
}

func rateLimit(h http.Header) (int, time.Time) {
	remaining := -1
	if v := strings.TrimSpace(h.Get("X-RateLimit-Remaining")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			remaining = n
		}
	}
	var reset time.Time
	if v := strings.TrimSpace(h.Get("X-RateLimit-Reset")); v != "" {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			reset = time.Unix(secs, 0)
		}
	}
	return remaining, reset
}

func repoPath(owner, name string) string {
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(name)
}

func escapePath(p string) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
