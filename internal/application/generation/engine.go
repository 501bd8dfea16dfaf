package generation

import (
	"context"
	"errors"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/scenario"
	"github.com/nyos/apr/internal/domain/shared"
	"github.com/nyos/apr/internal/infrastructure/rng"
	"github.com/nyos/apr/internal/infrastructure/telemetry"
)

// Status is the outcome of an engine run
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Result is the output of one engine run. Dataset holds only the requested
// categories; Generated lists everything that had to be built to satisfy
// their references.
type Result struct {
	Request   apr.GenerationRequest
	Seed      int64
	Status    Status
	Dataset   *apr.Dataset
	Generated apr.CategorySet
	Days      int
	Duration  time.Duration
}

// Engine runs the two-phase day-parallel simulation. It holds no per-run
// state, so one engine serves concurrent requests.
type Engine struct {
	factory  *rng.Factory
	registry *scenario.Registry
	limits   apr.Limits
	workers  int
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithWorkers bounds the number of days generated concurrently
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLimits overrides the request bounds
func WithLimits(l apr.Limits) EngineOption {
	return func(e *Engine) { e.limits = l }
}

// NewEngine creates an engine over an immutable scenario registry. A nil
// registry generates the unperturbed baseline.
func NewEngine(registry *scenario.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		factory:  rng.NewFactory(),
		registry: registry,
		limits:   apr.DefaultLimits(),
		workers:  runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the scenario calendar the engine applies
func (e *Engine) Registry() *scenario.Registry { return e.registry }

// Limits returns the request bounds the engine enforces
func (e *Engine) Limits() apr.Limits { return e.limits }

// Run generates the dataset of a request. Validation happens before any
// work. A cancelled context stops the run at the next day boundary and
// returns a cancelled result with no data.
func (e *Engine) Run(ctx context.Context, req apr.GenerationRequest) (*Result, error) {
	started := time.Now()
	req = req.Normalize()
	if err := req.Validate(e.limits); err != nil {
		return nil, err
	}
	needsHistory := req.Categories.Has(apr.CategoryComplaint) || req.Categories.Has(apr.CategoryCAPA)
	if needsHistory && req.Days() < 2 {
		return nil, shared.NewIntegrityError("complaints and CAPAs need batches made before %s; extend the date range",
			req.StartDate.Format(apr.DateLayout))
	}

	gen := closure(req.Categories)
	result := &Result{
		Request:   req,
		Seed:      req.EffectiveSeed(),
		Generated: gen,
		Days:      req.Days(),
	}

	ctx, span := telemetry.StartSpan(ctx, "generation.run",
		telemetry.SpanAttrSeed, result.Seed,
		telemetry.SpanAttrStartDate, req.StartDate.Format(apr.DateLayout),
		telemetry.SpanAttrEndDate, req.EndDate.Format(apr.DateLayout),
		telemetry.SpanAttrBatchesPerDay, req.BatchesPerDay,
		telemetry.SpanAttrCategories, gen.Strings(),
		telemetry.SpanAttrDays, result.Days,
	)
	defer span.End()

	roots, err := e.phase1(ctx, req, gen)
	if err != nil {
		return e.stopped(span, result, err)
	}
	batches, weights, offsets := flattenBatches(roots)

	var hist []historyDay
	if needsHistory {
		hist, err = e.phase2(ctx, req, batches, weights, offsets)
		if err != nil {
			return e.stopped(span, result, err)
		}
	}

	ds := assemble(roots, batches, hist)
	if err := resolve(ds); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	ds.Keep(req.Categories)

	result.Dataset = ds
	result.Status = StatusCompleted
	result.Duration = time.Since(started)

	total := 0
	for _, n := range ds.Counts(req.Categories) {
		total += n
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrRecords, total)
	return result, nil
}

// stopped maps a phase failure to the run outcome. Context errors become a
// cancelled result without data; anything else is returned as is.
func (e *Engine) stopped(span trace.Span, result *Result, err error) (*Result, error) {
	if isCancellation(err) {
		result.Status = StatusCancelled
		telemetry.SetAttributes(span, "cancelled", true)
		return result, shared.NewCancelledError("generation cancelled: %v", err)
	}
	telemetry.RecordError(span, err)
	return nil, err
}

// closure adds the categories the requested ones depend on. Complaints and
// CAPAs are always built together so their records do not depend on which
// of the two was asked for.
func closure(cats apr.CategorySet) apr.CategorySet {
	out := append([]apr.Category(nil), cats...)
	if cats.Has(apr.CategoryComplaint) || cats.Has(apr.CategoryCAPA) {
		out = append(out, apr.CategoryComplaint, apr.CategoryCAPA)
	}
	if cats.NeedsBatches() {
		out = append(out, apr.CategoryBatch)
	}
	if cats.NeedsQC() {
		out = append(out, apr.CategoryQC)
	}
	return apr.NewCategorySet(out...)
}

func (e *Engine) dayContext(req apr.GenerationRequest, i int, date time.Time) dayContext {
	return dayContext{
		index:    i,
		date:     date,
		seed:     req.EffectiveSeed(),
		perDay:   req.BatchesPerDay,
		product:  req.Product(),
		factory:  e.factory,
		registry: e.registry,
	}
}

// rootDay holds the phase 1 output of one day
type rootDay struct {
	batches       []apr.Batch
	qc            []apr.QCResult
	stability     []apr.StabilityResult
	releases      []apr.BatchRelease
	environmental []apr.EnvironmentalReading
	calibrations  []apr.EquipmentCalibration
	rawMaterials  []apr.RawMaterialReceipt
}

// historyDay holds the phase 2 output of one day
type historyDay struct {
	complaints []apr.Complaint
	capas      []apr.CAPA
}

// phase1 generates batches, their per-batch records and the time-indexed
// categories, one day per task. Each task writes only its own slot.
func (e *Engine) phase1(ctx context.Context, req apr.GenerationRequest, gen apr.CategorySet) ([]rootDay, error) {
	ctx, span := telemetry.StartSpan(ctx, "generation.phase1")
	defer span.End()

	days := make([]rootDay, req.Days())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	req.EachDay(func(i int, date time.Time) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			days[i] = generateRootDay(e.dayContext(req, i, date), gen)
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return days, ctx.Err()
}

func generateRootDay(d dayContext, gen apr.CategorySet) rootDay {
	var out rootDay
	if gen.Has(apr.CategoryBatch) {
		out.batches = generateBatches(d)
		for k, b := range out.batches {
			if gen.Has(apr.CategoryQC) {
				qc := generateQC(d, b, k)
				out.qc = append(out.qc, qc)
				if gen.Has(apr.CategoryBatchRelease) {
					out.releases = append(out.releases, generateRelease(d, b, qc, k))
				}
			}
			if gen.Has(apr.CategoryStability) {
				out.stability = append(out.stability, generateStability(d, b, k)...)
			}
		}
	}
	if gen.Has(apr.CategoryEnvironmental) {
		out.environmental = generateEnvironmental(d)
	}
	if gen.Has(apr.CategoryEquipment) {
		out.calibrations = generateCalibrations(d)
	}
	if gen.Has(apr.CategoryRawMaterial) {
		out.rawMaterials = generateRawMaterials(d)
	}
	return out
}

// flattenBatches lays every batch out in date order. offsets[i] is the
// position of the first batch of day i; weights are the history sampling
// weights of each batch.
func flattenBatches(days []rootDay) ([]apr.Batch, []float64, []int) {
	offsets := make([]int, len(days)+1)
	for i, d := range days {
		offsets[i+1] = offsets[i] + len(d.batches)
	}
	batches := make([]apr.Batch, 0, offsets[len(days)])
	weights := make([]float64, 0, offsets[len(days)])
	for _, d := range days {
		tested := len(d.qc) == len(d.batches)
		for k, b := range d.batches {
			failed := tested && !d.qc[k].OverallPass
			batches = append(batches, b)
			weights = append(weights, samplingWeight(b, failed))
		}
	}
	return batches, weights, offsets
}

// phase2 generates complaints and CAPAs. It starts only after every batch
// of the range exists, since each day samples the days before it.
func (e *Engine) phase2(ctx context.Context, req apr.GenerationRequest, batches []apr.Batch, weights []float64, offsets []int) ([]historyDay, error) {
	ctx, span := telemetry.StartSpan(ctx, "generation.phase2")
	defer span.End()

	days := make([]historyDay, req.Days())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	req.EachDay(func(i int, date time.Time) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lo, hi := offsets[max(0, i-historyDays)], offsets[i]
			h := history{batches: batches[lo:hi], weights: weights[lo:hi]}
			d := e.dayContext(req, i, date)
			days[i] = historyDay{
				complaints: generateComplaints(d, h),
				capas:      generateCAPAs(d, h),
			}
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return days, ctx.Err()
}

// assemble concatenates the day slots in date order
func assemble(roots []rootDay, batches []apr.Batch, hist []historyDay) *apr.Dataset {
	ds := &apr.Dataset{Batches: batches}
	for _, d := range roots {
		ds.QCResults = append(ds.QCResults, d.qc...)
		ds.Stability = append(ds.Stability, d.stability...)
		ds.Releases = append(ds.Releases, d.releases...)
		ds.Environmental = append(ds.Environmental, d.environmental...)
		ds.Calibrations = append(ds.Calibrations, d.calibrations...)
		ds.RawMaterials = append(ds.RawMaterials, d.rawMaterials...)
	}
	for _, d := range hist {
		ds.Complaints = append(ds.Complaints, d.complaints...)
		ds.CAPAs = append(ds.CAPAs, d.capas...)
	}
	return ds
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
