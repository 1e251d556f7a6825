package github

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	perrors "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/pkg/errors"
)

var (
	ErrInvalidFormat = fmt.Errorf("invalid repository url format: %w", perrors.ErrInvalidArgument)
	ErrNotAccessible = fmt.Errorf("repository not accessible: %w", perrors.ErrNotFound)
	ErrNoParent      = fmt.Errorf("commit has no parent: %w", perrors.ErrInvalidArgument)
	ErrNotAFile      = fmt.Errorf("path is not a file: %w", perrors.ErrInvalidArgument)
)

// HTTPError is returned for every non-2xx GitHub response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string

	// RateLimitRemaining is -1 when the header was absent.
	RateLimitRemaining int
	RateLimitReset     time.Time

	kind error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("github ")
	b.WriteString(e.Method)
	b.WriteString(" ")
	b.WriteString(e.Path)
	b.WriteString(fmt.Sprintf(": status=%d", e.StatusCode))
	if e.IsRateLimited() {
		b.WriteString(" rate limited until " + e.RateLimitReset.UTC().Format(time.RFC3339))
	}
	if body := strings.TrimSpace(e.Body); body != "" {
		if len(body) > 300 {
			body = body[:300] + "..."
		}
		b.WriteString(" body=")
		b.WriteString(body)
	}
	return b.String()
}

func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.kind
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// IsRateLimited reports a primary rate-limit rejection.
func (e *HTTPError) IsRateLimited() bool {
	if e == nil {
		return false
	}
	if e.StatusCode != http.StatusForbidden && e.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return e.RateLimitRemaining == 0
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusNotFound:
		return perrors.ErrNotFound
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return perrors.ErrInvalidArgument
	default:
		return perrors.ErrUnavailable
	}
}
