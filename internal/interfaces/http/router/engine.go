package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nyos/apr/internal/infrastructure/config"
	"github.com/nyos/apr/internal/infrastructure/logger"
	"github.com/nyos/apr/internal/infrastructure/metrics"
	"github.com/nyos/apr/internal/interfaces/http/handler"
	"github.com/nyos/apr/internal/interfaces/http/middleware"
)

// Deps are the pieces the HTTP engine is assembled from. Metrics may be
// nil to leave /metrics unrouted.
type Deps struct {
	Logger      *zap.Logger
	HTTP        config.HTTPConfig
	Tracing     middleware.TracingConfig
	Metrics     *metrics.Collector
	MetricsPath string
	Generation  *handler.GenerationHandler
	System      *handler.SystemHandler
}

// NewEngine builds the gin engine: middleware chain, health and metrics
// routes, and the versioned generation API.
func NewEngine(d Deps) *gin.Engine {
	middleware.SetupValidator()

	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(d.Tracing))
	engine.Use(middleware.SpanEnricher())
	engine.Use(logger.GinMiddleware(log))

	cors := middleware.DefaultCORSConfig()
	if len(d.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = d.HTTP.CORSAllowOrigins
	}
	if len(d.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = d.HTTP.CORSAllowMethods
	}
	if len(d.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = d.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(cors))

	engine.GET("/health", d.System.Health)
	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		engine.GET(path, gin.WrapH(d.Metrics.Handler()))
	}

	api := engine.Group("/api/v1")
	generationRoutes(d).Mount(api)
	api.GET("/ping", d.System.Ping)

	return engine
}

// generationRoutes lays out /generation. Routes that render full datasets
// share the rate limiter when it is enabled.
func generationRoutes(d Deps) *Group {
	h := d.Generation
	heavy := []gin.HandlerFunc{}
	if d.HTTP.RateLimitEnabled {
		heavy = append(heavy, middleware.RateLimit(
			middleware.NewRateLimiter(d.HTTP.RateLimitRequests, d.HTTP.RateLimitWindow),
		))
	}
	with := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, heavy...), fn)
	}

	g := NewGroup("/generation")
	g.POST("/preview", h.PreviewRange)
	g.POST("/download", with(h.DownloadRange)...)
	g.GET("/single/:data_type", with(h.Single)...)
	g.GET("/scenarios", h.Scenarios)
	g.GET("/data-types", h.DataTypes)
	g.GET("/runs", h.ListRuns)
	g.GET("/runs/:id", h.GetRun)

	g.Group("/month").
		POST("/preview", h.PreviewMonth).
		POST("/download", with(h.DownloadMonth)...)

	g.Group("/year").
		POST("/preview", h.PreviewYear).
		POST("/download", with(h.DownloadYear)...)

	return g
}
