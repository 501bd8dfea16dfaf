package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/nyos/apr/internal/application/generation"
	"github.com/nyos/apr/internal/domain/scenario"
	"github.com/nyos/apr/internal/infrastructure/config"
	"github.com/nyos/apr/internal/infrastructure/metrics"
	"github.com/nyos/apr/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== Route groups ====================

func TestGroup_Mount(t *testing.T) {
	engine := gin.New()
	NewGroup("/test").
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") }).
		Mount(engine.Group("/api/v1"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestGroup_ChildrenInheritMiddleware(t *testing.T) {
	engine := gin.New()
	var hits []string

	g := NewGroup("/outer").Use(func(c *gin.Context) {
		hits = append(hits, "outer")
		c.Next()
	})
	g.Group("/inner").POST("/run", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	g.Mount(engine.Group("/api/v1"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/outer/inner/run", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"outer"}, hits)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/outer/inner/run", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// ==================== Engine ====================

func newTestEngine(t *testing.T, httpCfg config.HTTPConfig) (*gin.Engine, *metrics.Collector) {
	t.Helper()
	collector := metrics.NewCollector(metrics.Config{})
	svc := generation.NewService(
		generation.NewEngine(scenario.Default(), generation.WithWorkers(2)),
		generation.Defaults{BatchesPerDay: 2, Seed: 42, Timeout: time.Minute},
		generation.WithRecorder(collector),
	)
	engine := NewEngine(Deps{
		Logger:     zaptest.NewLogger(t),
		HTTP:       httpCfg,
		Metrics:    collector,
		Generation: handler.NewGenerationHandler(svc),
		System:     handler.NewSystemHandler("test", nil),
	})
	return engine, collector
}

func TestNewEngine_Routes(t *testing.T) {
	engine, _ := newTestEngine(t, config.HTTPConfig{})

	want := []string{
		"GET /health",
		"GET /metrics",
		"GET /api/v1/ping",
		"POST /api/v1/generation/preview",
		"POST /api/v1/generation/download",
		"POST /api/v1/generation/month/preview",
		"POST /api/v1/generation/month/download",
		"POST /api/v1/generation/year/preview",
		"POST /api/v1/generation/year/download",
		"GET /api/v1/generation/single/:data_type",
		"GET /api/v1/generation/scenarios",
		"GET /api/v1/generation/data-types",
		"GET /api/v1/generation/runs",
		"GET /api/v1/generation/runs/:id",
	}
	got := make([]string, 0, len(engine.Routes()))
	for _, r := range engine.Routes() {
		got = append(got, r.Method+" "+r.Path)
	}
	assert.ElementsMatch(t, want, got)
}

func TestNewEngine_MetricsAfterPreview(t *testing.T) {
	engine, _ := newTestEngine(t, config.HTTPConfig{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/generation/month/preview",
		strings.NewReader(`{"year":2025,"month":1,"data_types":["raw_material"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `apr_runs_total{operation="preview",status="completed"} 1`)
}

func TestNewEngine_RateLimitsHeavyRoutes(t *testing.T) {
	engine, _ := newTestEngine(t, config.HTTPConfig{
		RateLimitEnabled:  true,
		RateLimitRequests: 1,
		RateLimitWindow:   time.Hour,
	})

	single := func() int {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/generation/single/qc?year=2025&month=1", nil))
		return w.Code
	}
	assert.Equal(t, http.StatusOK, single())
	assert.Equal(t, http.StatusTooManyRequests, single())

	// listings are not limited
	for range 3 {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/generation/data-types", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
