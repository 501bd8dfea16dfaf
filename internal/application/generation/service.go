package generation

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/shared"
	"github.com/nyos/apr/internal/infrastructure/export"
	"github.com/nyos/apr/internal/infrastructure/logger"
)

// Operations recorded in the run ledger and metrics
const (
	OperationPreview  = "preview"
	OperationDownload = "download"
	OperationSingle   = "single"
	OperationGenerate = "generate"
)

// Recorder observes run outcomes, typically for metrics
type Recorder interface {
	RunStarted(operation string)
	RunFinished(operation string, status apr.RunStatus, duration time.Duration, counts map[apr.Category]int)
}

// Archiver stores downloaded archives
type Archiver interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Defaults fill request fields a caller leaves empty
type Defaults struct {
	BatchesPerDay int
	Seed          int64
	ProductCode   string
	Timeout       time.Duration
}

// Input is a generation request expressed as a period plus wire values
type Input struct {
	Period        Period
	BatchesPerDay int
	DataTypes     []string
	Seed          *int64
	ProductCode   string
}

// Generated is a finished run cut to its requested period
type Generated struct {
	RunID   string
	Request apr.GenerationRequest
	Result  *Result
	Tile    *Tile
}

// ScenarioSummary describes one scenario of the active calendar
type ScenarioSummary struct {
	ScenarioID        string   `json:"scenario_id"`
	Name              string   `json:"name"`
	Period            string   `json:"period"`
	Effects           []string `json:"effects"`
	DataTypesAffected []string `json:"data_types_affected"`
}

// Service runs generation requests end to end: validation, engine run,
// tiling, export, ledger and metrics.
type Service struct {
	engine   *Engine
	defaults Defaults
	runs     apr.RunRepository
	recorder Recorder
	archiver Archiver
	logger   *zap.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithRunRepository records every run in a ledger
func WithRunRepository(repo apr.RunRepository) ServiceOption {
	return func(s *Service) { s.runs = repo }
}

// WithRecorder reports run outcomes
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// WithArchiver stores every downloaded archive
func WithArchiver(a Archiver) ServiceOption {
	return func(s *Service) { s.archiver = a }
}

// WithLogger sets the service logger
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a new generation Service
func NewService(engine *Engine, defaults Defaults, opts ...ServiceOption) *Service {
	if defaults.BatchesPerDay <= 0 {
		defaults.BatchesPerDay = 20
	}
	if defaults.ProductCode == "" {
		defaults.ProductCode = apr.Products[0].Code
	}
	s := &Service{
		engine:   engine,
		defaults: defaults,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request turns an input into a normalized, validated generation request
func (s *Service) Request(in Input) (apr.GenerationRequest, error) {
	cats, err := apr.ParseCategories(in.DataTypes)
	if err != nil {
		return apr.GenerationRequest{}, err
	}
	req := apr.GenerationRequest{
		StartDate:     in.Period.Start,
		EndDate:       in.Period.End,
		BatchesPerDay: in.BatchesPerDay,
		Categories:    cats,
		Seed:          in.Seed,
		ProductCode:   in.ProductCode,
	}
	if req.BatchesPerDay == 0 {
		req.BatchesPerDay = s.defaults.BatchesPerDay
	}
	if req.Seed == nil {
		seed := s.defaults.Seed
		req.Seed = &seed
	}
	if req.ProductCode == "" {
		req.ProductCode = s.defaults.ProductCode
	}
	req = req.Normalize()
	if err := req.Validate(s.engine.Limits()); err != nil {
		return apr.GenerationRequest{}, err
	}
	return req, nil
}

// Preview runs the generation and returns only the manifest
func (s *Service) Preview(ctx context.Context, in Input) (*Manifest, error) {
	gen, finish, err := s.execute(ctx, OperationPreview, in)
	if err != nil {
		return nil, err
	}
	m := gen.Tile.Manifest(gen.RunID, gen.Request)
	finish("", nil)
	return &m, nil
}

// Download runs the generation and packs the tile into a ZIP. When an
// archiver is configured the archive is also stored under {run_id}/{file}.
func (s *Service) Download(ctx context.Context, in Input) (*Archive, error) {
	gen, finish, err := s.execute(ctx, OperationDownload, in)
	if err != nil {
		return nil, err
	}
	archive, err := gen.Tile.Archive(gen.RunID, gen.Request)
	if err != nil {
		finish("", err)
		return nil, err
	}
	if s.archiver != nil {
		key := path.Join(gen.RunID, archive.FileName)
		loc, err := s.archiver.Put(ctx, key, archive.Data, export.ContentType)
		if err != nil {
			finish("", err)
			return nil, err
		}
		archive.ArchiveKey = loc
	}
	finish(archive.ArchiveKey, nil)
	return archive, nil
}

// Single renders one category of one month as a CSV file
func (s *Service) Single(ctx context.Context, dataType string, year, month, batchesPerDay int, seed *int64) (string, []byte, error) {
	if err := ValidateMonth(year, month); err != nil {
		return "", nil, err
	}
	cat, err := apr.ParseCategory(dataType)
	if err != nil {
		return "", nil, err
	}
	p := MonthPeriod(year, time.Month(month))
	gen, finish, err := s.execute(ctx, OperationSingle, Input{
		Period:        p,
		BatchesPerDay: batchesPerDay,
		DataTypes:     []string{string(cat)},
		Seed:          seed,
	})
	if err != nil {
		return "", nil, err
	}
	data, err := export.EncodeCSV(cat, &gen.Tile.Dataset)
	finish("", err)
	if err != nil {
		return "", nil, err
	}
	return FileName(cat, p), data, nil
}

// Generate runs a request for callers that export the tile themselves,
// such as the CLI.
func (s *Service) Generate(ctx context.Context, in Input) (*Generated, error) {
	gen, finish, err := s.execute(ctx, OperationGenerate, in)
	if err != nil {
		return nil, err
	}
	finish("", nil)
	return gen, nil
}

// Scenarios lists the scenario calendar the engine applies
func (s *Service) Scenarios() []ScenarioSummary {
	reg := s.engine.Registry()
	if reg == nil {
		return []ScenarioSummary{}
	}
	scenarios := reg.Scenarios()
	out := make([]ScenarioSummary, 0, len(scenarios))
	for _, sc := range scenarios {
		out = append(out, ScenarioSummary{
			ScenarioID:        sc.ID,
			Name:              sc.Name,
			Period:            sc.Period,
			Effects:           sc.Effects(),
			DataTypesAffected: sc.Categories().Strings(),
		})
	}
	return out
}

// DataTypes lists the categories the engine can generate
func (s *Service) DataTypes() []apr.CategoryInfo {
	return apr.Catalog()
}

// Runs lists the most recent ledger entries
func (s *Service) Runs(ctx context.Context, limit int) ([]apr.Run, error) {
	if s.runs == nil {
		return []apr.Run{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runs.FindRecent(ctx, limit)
}

// Run returns one ledger entry
func (s *Service) Run(ctx context.Context, id uuid.UUID) (*apr.Run, error) {
	if s.runs == nil {
		return nil, shared.ErrNotFound
	}
	return s.runs.FindByID(ctx, id)
}

// execute validates the input, opens a ledger entry and runs the engine.
// The returned finish func closes the ledger entry once the caller has
// exported the tile; it must be called exactly once on success.
func (s *Service) execute(ctx context.Context, op string, in Input) (*Generated, func(string, error), error) {
	req, err := s.Request(in)
	if err != nil {
		return nil, nil, err
	}

	run := apr.NewRun(op, string(in.Period.Granularity), req)
	runID := run.ID.String()
	ctx = logger.WithRunID(ctx, runID)
	log := s.logger.With(
		zap.String("run_id", runID),
		zap.String("operation", op),
	)
	if traceID := logger.GetTraceID(ctx); traceID != "" {
		log = log.With(zap.String("trace_id", traceID))
	}

	s.saveRun(ctx, log, run)
	if s.recorder != nil {
		s.recorder.RunStarted(op)
	}
	log.Info("Generation started",
		zap.String("period_start", req.StartDate.Format(apr.DateLayout)),
		zap.String("period_end", req.EndDate.Format(apr.DateLayout)),
		zap.Int("batches_per_day", req.BatchesPerDay),
		zap.Int64("seed", req.EffectiveSeed()),
		zap.Strings("categories", req.Categories.Strings()),
	)

	var counts map[apr.Category]int
	finish := func(archiveKey string, err error) {
		status := apr.RunStatusCompleted
		switch {
		case errors.Is(err, shared.ErrCancelled):
			status = apr.RunStatusCancelled
		case err != nil:
			status = apr.RunStatusFailed
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		run.ArchiveKey = archiveKey
		run.Finish(status, total, err)
		s.saveRun(ctx, log, run)
		if s.recorder != nil {
			s.recorder.RunFinished(op, status, run.Duration(), counts)
		}

		switch status {
		case apr.RunStatusCompleted:
			log.Info("Generation completed",
				zap.Int("total_records", total),
				zap.Duration("duration", run.Duration()),
			)
		case apr.RunStatusCancelled:
			log.Warn("Generation cancelled", zap.Error(err))
		default:
			log.Error("Generation failed", zap.Error(err))
		}
	}

	runCtx := ctx
	if s.defaults.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.defaults.Timeout)
		defer cancel()
	}

	result, err := s.engine.Run(runCtx, req)
	if err != nil {
		finish("", err)
		return nil, nil, err
	}

	tile := NewTile(result.Dataset, in.Period, req.Categories)
	counts = make(map[apr.Category]int, len(req.Categories))
	for _, c := range req.Categories {
		counts[c] = tile.Count(c)
	}
	for _, c := range req.Categories {
		log.Debug("Category generated",
			zap.String("category", string(c)),
			zap.Int("records", counts[c]),
		)
	}

	return &Generated{
		RunID:   runID,
		Request: req,
		Result:  result,
		Tile:    tile,
	}, finish, nil
}

// saveRun writes the ledger entry. Ledger failures are logged, never returned.
func (s *Service) saveRun(ctx context.Context, log *zap.Logger, run *apr.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Save(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("Failed to record run", zap.Error(err))
	}
}
