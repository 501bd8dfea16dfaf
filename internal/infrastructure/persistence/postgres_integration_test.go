//go:build integration

package persistence

import (
	"context"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/infrastructure/config"
	"github.com/nyos/apr/internal/infrastructure/migration"
)

func startPostgres(t *testing.T) (*config.DatabaseConfig, string) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("apr_test"),
		tcpostgres.WithUsername("apr"),
		tcpostgres.WithPassword("apr"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	u, err := url.Parse(dsn)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	password, _ := u.User.Password()

	return &config.DatabaseConfig{
		Enabled:      true,
		Driver:       DriverPostgres,
		Host:         u.Hostname(),
		Port:         port,
		User:         u.User.Username(),
		Password:     password,
		DBName:       "apr_test",
		SSLMode:      "disable",
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}, dsn
}

func TestPostgres_MigrateAndSave(t *testing.T) {
	cfg, _ := startPostgres(t)
	logger := zaptest.NewLogger(t)

	db, err := NewDatabase(cfg, WithLogger(logger, "warn"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate())
	// a second pass is a no-op
	require.NoError(t, db.Migrate())

	repo := NewGormRunRepository(db.DB)
	ctx := context.Background()
	run := sampleRun(time.Now().UTC().Truncate(time.Microsecond))
	require.NoError(t, repo.Save(ctx, run))

	run.Finish(apr.RunStatusCompleted, 620, nil)
	require.NoError(t, repo.Save(ctx, run))

	got, err := repo.FindByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, apr.RunStatusCompleted, got.Status)
	assert.Equal(t, 620, got.TotalRecords)
	assert.Equal(t, run.PeriodStart, got.PeriodStart)
}

func TestPostgres_MigratorRoundTrip(t *testing.T) {
	_, dsn := startPostgres(t)

	m, err := migration.Open(dsn, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, m.Down())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
}
