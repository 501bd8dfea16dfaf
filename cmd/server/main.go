// Command server exposes the APR data generation API over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nyos/apr/internal/application/generation"
	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/scenario"
	"github.com/nyos/apr/internal/infrastructure/config"
	"github.com/nyos/apr/internal/infrastructure/logger"
	"github.com/nyos/apr/internal/infrastructure/metrics"
	"github.com/nyos/apr/internal/infrastructure/persistence"
	"github.com/nyos/apr/internal/infrastructure/scenarioconfig"
	"github.com/nyos/apr/internal/infrastructure/storage"
	"github.com/nyos/apr/internal/infrastructure/telemetry"
	"github.com/nyos/apr/internal/interfaces/http/handler"
	"github.com/nyos/apr/internal/interfaces/http/middleware"
	"github.com/nyos/apr/internal/interfaces/http/router"
)

// version is stamped at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		logger.Sync(log)
	}()

	log.Info("Starting APR data server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	tp, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	registry, err := loadRegistry(cfg.Generation.ScenarioFile)
	if err != nil {
		log.Fatal("Failed to load scenario calendar", zap.Error(err))
	}
	log.Info("Scenario calendar loaded",
		zap.Int("scenarios", len(registry.Scenarios())),
		zap.Int("windows", registry.Len()),
		zap.String("file", cfg.Generation.ScenarioFile),
	)

	opts := []generation.ServiceOption{generation.WithLogger(log)}

	// The ledger is optional; without it runs are only logged.
	var ledger handler.Pinger
	if cfg.Database.Enabled {
		tracing := telemetry.DefaultDBTracingConfig()
		tracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
		db, err := persistence.NewDatabase(&cfg.Database,
			persistence.WithLogger(log, cfg.Log.Level),
			persistence.WithTracing(tracing),
		)
		if err != nil {
			log.Fatal("Failed to connect to run ledger", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(); err != nil {
				log.Fatal("Failed to migrate run ledger", zap.Error(err))
			}
		}
		log.Info("Run ledger connected", zap.String("driver", cfg.Database.Driver))
		ledger = db
		opts = append(opts, generation.WithRunRepository(persistence.NewGormRunRepository(db.DB)))
	}

	sink, err := storage.NewSink(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize archive storage", zap.Error(err))
	}
	if sink != nil {
		opts = append(opts, generation.WithArchiver(sink))
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(metrics.Config{ProcessMetrics: true})
		opts = append(opts, generation.WithRecorder(collector))
	}

	engine := generation.NewEngine(registry,
		generation.WithWorkers(cfg.Generation.Workers),
		generation.WithLimits(apr.Limits{
			MaxBatchesPerDay: cfg.Generation.MaxBatchesPerDay,
			MaxRangeDays:     cfg.Generation.MaxRangeDays,
		}),
	)
	svc := generation.NewService(engine, generation.Defaults{
		BatchesPerDay: cfg.Generation.DefaultBatchesPerDay,
		Seed:          cfg.Generation.DefaultSeed,
		ProductCode:   cfg.Generation.ProductCode,
		Timeout:       cfg.Generation.Timeout,
	}, opts...)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpEngine := router.NewEngine(router.Deps{
		Logger: log,
		HTTP:   cfg.HTTP,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tp.Enabled(),
		},
		Metrics:     collector,
		MetricsPath: cfg.Metrics.Path,
		Generation:  handler.NewGenerationHandler(svc),
		System:      handler.NewSystemHandler(version, ledger),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        httpEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// loadRegistry reads the scenario calendar from path, or returns the
// built-in calendar when no file is configured.
func loadRegistry(path string) (*scenario.Registry, error) {
	if path == "" {
		return scenario.Default(), nil
	}
	return scenarioconfig.Load(path)
}
