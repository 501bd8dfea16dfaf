package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nyos/apr/internal/application/generation"
	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/infrastructure/config"
	"github.com/nyos/apr/internal/infrastructure/export"
	"github.com/nyos/apr/internal/infrastructure/storage"
)

// requestFlags are the flags shared by generate and preview
type requestFlags struct {
	year          int
	month         int
	start         string
	end           string
	batchesPerDay int
	dataTypes     []string
	seed          int64
	productCode   string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVar(&f.year, "year", 0, "calendar year to generate")
	fs.IntVar(&f.month, "month", 0, "month of --year (1-12)")
	fs.StringVar(&f.start, "start", "", "custom range start (YYYY-MM-DD)")
	fs.StringVar(&f.end, "end", "", "custom range end (YYYY-MM-DD)")
	fs.IntVar(&f.batchesPerDay, "batches-per-day", 0, "batches per day (default from config)")
	fs.StringSliceVar(&f.dataTypes, "data-types", nil, "categories to export (default: all)")
	fs.Int64Var(&f.seed, "seed", 0, "seed (default from config)")
	fs.StringVar(&f.productCode, "product", "", "product code (default from config)")
	cmd.MarkFlagsMutuallyExclusive("year", "start")
	cmd.MarkFlagsRequiredTogether("start", "end")
}

func (f *requestFlags) period() (generation.Period, error) {
	switch {
	case f.start != "":
		start, err := time.Parse(apr.DateLayout, f.start)
		if err != nil {
			return generation.Period{}, fmt.Errorf("invalid --start %q", f.start)
		}
		end, err := time.Parse(apr.DateLayout, f.end)
		if err != nil {
			return generation.Period{}, fmt.Errorf("invalid --end %q", f.end)
		}
		return generation.CustomPeriod(start, end), nil
	case f.year == 0:
		return generation.Period{}, errors.New("either --year or --start/--end is required")
	case f.month != 0:
		if err := generation.ValidateMonth(f.year, f.month); err != nil {
			return generation.Period{}, err
		}
		return generation.MonthPeriod(f.year, time.Month(f.month)), nil
	default:
		if err := generation.ValidateYear(f.year); err != nil {
			return generation.Period{}, err
		}
		return generation.YearPeriod(f.year), nil
	}
}

func (f *requestFlags) input(cmd *cobra.Command, p generation.Period) generation.Input {
	in := generation.Input{
		Period:        p,
		BatchesPerDay: f.batchesPerDay,
		DataTypes:     f.dataTypes,
		ProductCode:   f.productCode,
	}
	if cmd.Flags().Changed("seed") {
		seed := f.seed
		in.Seed = &seed
	}
	return in
}

// signalContext cancels on SIGINT/SIGTERM so a long run stops cleanly
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func newGenerateCmd(a *app) *cobra.Command {
	var (
		flags   requestFlags
		monthly bool
		out     string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate ZIP archives of CSV files plus manifest",
		Long: `Generate runs the engine for a month, a year or a custom range and writes
one ZIP per period. --monthly slices a single year run into twelve month
archives whose record counts add up to the year archive.
--out takes a directory or an s3://bucket/prefix URL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := flags.period()
			if err != nil {
				return err
			}
			if monthly && p.Granularity != generation.GranularityYear {
				return errors.New("--monthly needs --year without --month")
			}

			sink, err := openSink(out, a.cfg.Storage, a.log)
			if err != nil {
				return err
			}
			svc, closeFn, err := a.service()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			// --monthly slices one run so batch history carries across months
			gen, err := svc.Generate(ctx, flags.input(cmd, p))
			if err != nil {
				return err
			}
			tiles := []*generation.Tile{gen.Tile}
			if monthly {
				tiles = gen.Tile.SplitMonthly()
			}
			for _, tile := range tiles {
				archive, err := tile.Archive(gen.RunID, gen.Request)
				if err != nil {
					return err
				}
				loc, err := sink.Put(ctx, archive.FileName, archive.Data, export.ContentType)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d records\trun %s\n",
					loc, archive.Manifest.Records(), gen.RunID)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&monthly, "monthly", false, "write one archive per month of --year")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory or s3://bucket/prefix")
	return cmd
}

// openSink resolves --out into a storage sink. S3 targets reuse the
// configured endpoint and credentials with the bucket and prefix of the URL.
func openSink(out string, base config.StorageConfig, log *zap.Logger) (storage.Sink, error) {
	if !strings.HasPrefix(out, "s3://") {
		return storage.NewLocalSink(out, log), nil
	}
	u, err := url.Parse(out)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid S3 target %q", out)
	}
	base.Bucket = u.Host
	base.Prefix = strings.Trim(u.Path, "/")
	return storage.NewS3Sink(&base, storage.WithLogger(log))
}

func newPreviewCmd(a *app) *cobra.Command {
	var flags requestFlags
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the manifest of a run without writing files",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := flags.period()
			if err != nil {
				return err
			}
			svc, closeFn, err := a.service()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			m, err := svc.Preview(ctx, flags.input(cmd, p))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m)
		},
	}
	flags.register(cmd)
	return cmd
}
