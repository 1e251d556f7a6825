package http

import (
	"context"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/riyuc/cf-ai-Codebase-Onboarder/internal/http/handlers"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/observability"
	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/storage"
)

type healthyStores struct{}

func (healthyStores) HealthCheck(context.Context) storage.HealthStatus {
	return storage.HealthStatus{Relational: true, KV: true, Blob: true, Vector: true}
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouterHealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := NewRouter(RouterConfig{
		Metrics:       m,
		HealthHandler: httpH.NewHealthHandler(healthyStores{}, m),
	})

	if w := serve(r, stdhttp.MethodGet, "/healthcheck"); w.Code != stdhttp.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthcheck: want=200 ok got=%d %q", w.Code, w.Body.String())
	}
	if w := serve(r, stdhttp.MethodGet, "/health"); w.Code != stdhttp.StatusOK {
		t.Fatalf("health: want=200 got=%d", w.Code)
	}
	w := serve(r, stdhttp.MethodGet, "/metrics")
	if w.Code != stdhttp.StatusOK {
		t.Fatalf("metrics: want=200 got=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `onb_store_up{store="kv"} 1`) {
		t.Fatalf("metrics body missing store gauge")
	}
}

func TestRouterOmitsUnconfiguredRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterConfig{})
	for _, path := range []string{"/metrics", "/healthcheck", "/api/repositories"} {
		if w := serve(r, stdhttp.MethodGet, path); w.Code != stdhttp.StatusNotFound {
			t.Fatalf("%s: want=404 got=%d", path, w.Code)
		}
	}
}
