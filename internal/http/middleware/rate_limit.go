package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http/response"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/observability"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/logger"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
)

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (storage.RateLimitResult, error)
}

// RateLimit counts requests per client IP under name. A limiter failure lets
// the request through.
func RateLimit(log *logger.Logger, rl RateLimiter, m *observability.Metrics, name string, limit int64, window time.Duration) gin.HandlerFunc {
	if rl == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		res, err := rl.CheckRateLimit(c.Request.Context(), name+":"+c.ClientIP(), limit, window)
		if err != nil {
			if log != nil {
				log.Warn("Rate limiter unavailable", "limiter", name, "error", err)
			}
			c.Next()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		if !res.Allowed {
			m.IncRateLimited()
			c.Header("Retry-After", strconv.Itoa(int(res.ResetIn.Round(time.Second)/time.Second)))
			response.RespondError(c, http.StatusTooManyRequests, "rate_limited", errRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}

var errRateLimited = errors.New("too many requests, try again later")
