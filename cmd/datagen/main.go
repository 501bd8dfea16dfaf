// Command datagen generates, previews and verifies APR datasets offline.
//
// Usage:
//
//	datagen generate --year 2025 --monthly --out ./out
//	datagen generate --year 2025 --month 3 --out s3://apr-archives/qa
//	datagen preview --start 2025-01-01 --end 2025-03-31 --data-types qc,stability
//	datagen verify out/apr_data_2025-03.zip
//	datagen scenarios --yaml > scenarios.yaml
//	datagen migrate up
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nyos/apr/internal/application/generation"
	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/scenario"
	"github.com/nyos/apr/internal/infrastructure/config"
	"github.com/nyos/apr/internal/infrastructure/logger"
	"github.com/nyos/apr/internal/infrastructure/persistence"
	"github.com/nyos/apr/internal/infrastructure/scenarioconfig"
)

// app carries what every subcommand needs once the root has run
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "datagen",
		Short:         "Deterministic synthetic APR data generator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.log != nil {
				logger.Sync(a.log)
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: ./config.toml when present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newGenerateCmd(a),
		newPreviewCmd(a),
		newVerifyCmd(a),
		newScenariosCmd(a),
		newMigrateCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "15:04:05.000",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) registry() (*scenario.Registry, error) {
	if a.cfg.Generation.ScenarioFile == "" {
		return scenario.Default(), nil
	}
	return scenarioconfig.Load(a.cfg.Generation.ScenarioFile)
}

// service wires a generation service from configuration. The returned
// close func releases the run ledger, if one was opened.
func (a *app) service() (*generation.Service, func(), error) {
	registry, err := a.registry()
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {}
	opts := []generation.ServiceOption{generation.WithLogger(a.log)}
	if a.cfg.Database.Enabled {
		db, err := persistence.NewDatabase(&a.cfg.Database, persistence.WithLogger(a.log, "warn"))
		if err != nil {
			return nil, nil, err
		}
		if a.cfg.Database.AutoMigrate {
			if err := db.Migrate(); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		closeFn = func() { _ = db.Close() }
		opts = append(opts, generation.WithRunRepository(persistence.NewGormRunRepository(db.DB)))
	}

	engine := generation.NewEngine(registry,
		generation.WithWorkers(a.cfg.Generation.Workers),
		generation.WithLimits(apr.Limits{
			MaxBatchesPerDay: a.cfg.Generation.MaxBatchesPerDay,
			MaxRangeDays:     a.cfg.Generation.MaxRangeDays,
		}),
	)
	svc := generation.NewService(engine, generation.Defaults{
		BatchesPerDay: a.cfg.Generation.DefaultBatchesPerDay,
		Seed:          a.cfg.Generation.DefaultSeed,
		ProductCode:   a.cfg.Generation.ProductCode,
		Timeout:       a.cfg.Generation.Timeout,
	}, opts...)
	return svc, closeFn, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
