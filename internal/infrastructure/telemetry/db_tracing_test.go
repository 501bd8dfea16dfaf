package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ledgerProbe struct {
	ID        uint   `gorm:"primaryKey"`
	Operation string `gorm:"size:20"`
	CreatedAt time.Time
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ledgerProbe{}))
	return db
}

func TestDefaultDBTracingConfig(t *testing.T) {
	cfg := DefaultDBTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.LogFullSQL)
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThresh)
	assert.Equal(t, "postgresql", cfg.DBSystem)
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := setupTestDB(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	cfg := DefaultDBTracingConfig()
	cfg.TracerProvider = tp
	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))

	require.NoError(t, db.WithContext(context.Background()).Create(&ledgerProbe{Operation: "preview"}).Error)
	assert.Empty(t, recorder.Ended())
}

func TestRegisterDBTracing_Enabled(t *testing.T) {
	db := setupTestDB(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	cfg := DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Second,
		DBSystem:        "sqlite",
		TracerProvider:  tp,
	}
	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&ledgerProbe{Operation: "download"}).Error)
	var got ledgerProbe
	require.NoError(t, db.WithContext(ctx).First(&got).Error)
	assert.Equal(t, "download", got.Operation)

	assert.GreaterOrEqual(t, len(recorder.Ended()), 2)
}

func TestRegisterDBTracing_Twice(t *testing.T) {
	db := setupTestDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"

	require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))
	// the plugin name is already taken on the second pass
	assert.Error(t, RegisterDBTracing(db, cfg, zap.NewNop()))
}
