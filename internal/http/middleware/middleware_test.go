package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/ctxutil"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
)

type countingLimiter struct {
	n   int64
	err error
}

func (l *countingLimiter) CheckRateLimit(_ context.Context, _ string, limit int64, window time.Duration) (storage.RateLimitResult, error) {
	if l.err != nil {
		return storage.RateLimitResult{}, l.err
	}
	l.n++
	rem := limit - l.n
	if rem < 0 {
		rem = 0
	}
	return storage.RateLimitResult{Allowed: l.n <= limit, Count: l.n, Remaining: rem, ResetIn: window}, nil
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/ingest", RateLimit(nil, &countingLimiter{}, nil, "ingest", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest", nil))
		codes = append(codes, rec.Code)
		if i == 2 && rec.Header().Get("Retry-After") != "60" {
			t.Fatalf("retry-after: got=%q", rec.Header().Get("Retry-After"))
		}
	}
	if codes[0] != http.StatusAccepted || codes[1] != http.StatusAccepted || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes: got=%v", codes)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/ingest", RateLimit(nil, &countingLimiter{err: errors.New("redis down")}, nil, "ingest", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ingest", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status: want=%d got=%d", http.StatusAccepted, rec.Code)
	}
}

func TestAttachTraceContextPropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	var seen *ctxutil.TraceData
	r.GET("/x", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil || seen.RequestID != "req-42" || seen.TraceID == "" {
		t.Fatalf("trace data: got=%+v", seen)
	}
	if rec.Header().Get("X-Request-Id") != "req-42" || rec.Header().Get("X-Trace-Id") != seen.TraceID {
		t.Fatalf("headers: got=%v", rec.Header())
	}
}
