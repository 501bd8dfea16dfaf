package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/scenario"
	"github.com/nyos/apr/internal/domain/shared"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seed(v int64) *int64 { return &v }

func request(start, end time.Time, bpd int, cats ...apr.Category) apr.GenerationRequest {
	return apr.GenerationRequest{
		StartDate:     start,
		EndDate:       end,
		BatchesPerDay: bpd,
		Categories:    apr.NewCategorySet(cats...),
		Seed:          seed(42),
	}
}

func newTestEngine(opts ...EngineOption) *Engine {
	return NewEngine(scenario.Default(), append([]EngineOption{WithWorkers(4)}, opts...)...)
}

func run(t *testing.T, e *Engine, req apr.GenerationRequest) *Result {
	t.Helper()
	result, err := e.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	return result
}

// ==================== Determinism ====================

func TestEngine_Determinism(t *testing.T) {
	req := request(date(2025, 1, 1), date(2025, 1, 31), 5)

	t.Run("identical requests give identical datasets", func(t *testing.T) {
		a := run(t, newTestEngine(), req)
		b := run(t, newTestEngine(), req)
		if diff := cmp.Diff(a.Dataset, b.Dataset); diff != "" {
			t.Fatalf("datasets differ (-first +second):\n%s", diff)
		}
	})

	t.Run("worker count does not change output", func(t *testing.T) {
		a := run(t, newTestEngine(WithWorkers(1)), req)
		b := run(t, newTestEngine(WithWorkers(16)), req)
		if diff := cmp.Diff(a.Dataset, b.Dataset); diff != "" {
			t.Fatalf("datasets differ (-serial +parallel):\n%s", diff)
		}
	})

	t.Run("different seeds give different batches", func(t *testing.T) {
		other := req
		other.Seed = seed(7)
		a := run(t, newTestEngine(), req)
		b := run(t, newTestEngine(), other)
		assert.NotEmpty(t, cmp.Diff(a.Dataset.Batches, b.Dataset.Batches))
	})

	t.Run("default seed applies when none given", func(t *testing.T) {
		unseeded := req
		unseeded.Seed = nil
		a := run(t, newTestEngine(), req)
		b := run(t, newTestEngine(), unseeded)
		assert.Equal(t, apr.DefaultSeed, b.Seed)
		assert.Empty(t, cmp.Diff(a.Dataset, b.Dataset))
	})

	t.Run("subset requests reproduce the same records", func(t *testing.T) {
		full := run(t, newTestEngine(), req)
		onlyCAPA := run(t, newTestEngine(), request(req.StartDate, req.EndDate, 5, apr.CategoryCAPA))
		assert.Empty(t, cmp.Diff(full.Dataset.CAPAs, onlyCAPA.Dataset.CAPAs))
		assert.Empty(t, onlyCAPA.Dataset.Batches)
		assert.Empty(t, onlyCAPA.Dataset.Complaints)
	})
}

// ==================== Volume ====================

func TestEngine_BatchVolume(t *testing.T) {
	result := run(t, newTestEngine(), request(date(2025, 1, 1), date(2025, 1, 31), 20, apr.CategoryBatch))

	assert.Len(t, result.Dataset.Batches, 620)
	assert.Equal(t, 31, result.Days)
	assert.Equal(t, "PARA-250101-001", result.Dataset.Batches[0].BatchID)
	assert.Equal(t, "PARA-250131-020", result.Dataset.Batches[619].BatchID)
	assert.Equal(t, apr.CategorySet{apr.CategoryBatch}, result.Generated)
	assert.Empty(t, result.Dataset.QCResults)

	seen := make(map[string]bool, len(result.Dataset.Batches))
	for _, b := range result.Dataset.Batches {
		assert.False(t, seen[b.BatchID], "duplicate batch id %s", b.BatchID)
		seen[b.BatchID] = true
	}
}

func TestEngine_ReducedProduction(t *testing.T) {
	covid := run(t, newTestEngine(), request(date(2020, 4, 1), date(2020, 4, 30), 20, apr.CategoryBatch))
	normal := run(t, newTestEngine(), request(date(2020, 7, 1), date(2020, 7, 30), 20, apr.CategoryBatch))

	assert.Len(t, covid.Dataset.Batches, 30*12)
	assert.Len(t, normal.Dataset.Batches, 30*20)
}

func TestEngine_PerBatchRecords(t *testing.T) {
	result := run(t, newTestEngine(), request(date(2025, 3, 1), date(2025, 3, 31), 4,
		apr.CategoryBatch, apr.CategoryQC, apr.CategoryBatchRelease))

	ds := result.Dataset
	assert.Len(t, ds.QCResults, len(ds.Batches))
	assert.Len(t, ds.Releases, len(ds.Batches))
	for i, qc := range ds.QCResults {
		assert.Equal(t, ds.Batches[i].BatchID, qc.BatchID)
		lag := qc.TestDate.Sub(qc.ManufacturingDate).Hours() / 24
		assert.GreaterOrEqual(t, lag, 1.0)
		assert.LessOrEqual(t, lag, 3.0)
	}
}

// ==================== Integrity ====================

func TestEngine_ReferentialIntegrity(t *testing.T) {
	result := run(t, newTestEngine(), request(date(2025, 1, 1), date(2025, 3, 31), 10))
	ds := result.Dataset

	made := make(map[string]time.Time, len(ds.Batches))
	for _, b := range ds.Batches {
		_, ok := apr.InstrumentByID(b.EquipmentID)
		assert.True(t, ok, "press %s not registered", b.EquipmentID)
		made[b.BatchID] = b.ManufacturingDate
	}

	require.NotEmpty(t, ds.Complaints)
	require.NotEmpty(t, ds.CAPAs)

	for _, c := range ds.Complaints {
		mfg, ok := made[c.BatchID]
		require.True(t, ok, "complaint %s cites unknown batch", c.ComplaintID)
		assert.True(t, mfg.Before(c.ComplaintDate))
		assert.False(t, mfg.Before(c.ComplaintDate.AddDate(0, 0, -historyDays)), "batch older than history window")
	}

	complaints := make(map[string]apr.Complaint, len(ds.Complaints))
	for _, c := range ds.Complaints {
		complaints[c.ComplaintID] = c
	}
	capas := make(map[string]bool, len(ds.CAPAs))
	for _, c := range ds.CAPAs {
		mfg, ok := made[c.BatchID]
		require.True(t, ok, "capa %s cites unknown batch", c.CAPAID)
		assert.True(t, mfg.Before(c.OpenDate))
		capas[c.CAPAID] = true

		if c.Source == apr.SourceComplaint {
			src, ok := complaints[c.SourceReference]
			require.True(t, ok, "capa %s cites unknown complaint %s", c.CAPAID, c.SourceReference)
			assert.False(t, src.ComplaintDate.After(c.OpenDate))
			assert.Equal(t, src.BatchID, c.BatchID)
		}
	}
	for _, c := range ds.Complaints {
		if c.CAPAReference != "" {
			assert.True(t, capas[c.CAPAReference])
		}
	}

	for _, r := range ds.Releases {
		assert.True(t, made[r.BatchID].Before(r.DecisionDate))
	}
	for _, s := range ds.Stability {
		mfg, ok := made[s.BatchID]
		require.True(t, ok)
		assert.False(t, s.TestDate.Before(mfg))
	}
	for _, c := range ds.Calibrations {
		_, ok := apr.InstrumentByID(c.EquipmentID)
		assert.True(t, ok)
	}
}

// ==================== Bounds ====================

func TestEngine_PhysicalBounds(t *testing.T) {
	// 2021 crosses the Press-A drift and stays inside physical limits
	result := run(t, newTestEngine(), request(date(2021, 6, 1), date(2021, 11, 30), 8,
		apr.CategoryBatch, apr.CategoryQC, apr.CategoryEnvironmental, apr.CategoryRawMaterial))
	ds := result.Dataset

	within := func(c apr.Category, field string, v float64) {
		p := apr.MustBaseline(c, field)
		assert.GreaterOrEqual(t, v, p.PhysMin, "%s/%s below physical minimum", c, field)
		assert.LessOrEqual(t, v, p.PhysMax, "%s/%s above physical maximum", c, field)
	}

	for _, b := range ds.Batches {
		within(apr.CategoryBatch, apr.FieldHardness, b.Hardness)
		within(apr.CategoryBatch, apr.FieldYield, b.YieldPercent)
		within(apr.CategoryBatch, apr.FieldCompressionForce, b.CompressionForce)
		within(apr.CategoryBatch, apr.FieldFriability, b.FriabilityPct)
		within(apr.CategoryBatch, apr.FieldWeight, b.Weight)
		within(apr.CategoryBatch, apr.FieldThickness, b.Thickness)
		within(apr.CategoryBatch, apr.FieldMoisture, b.MoisturePct)
	}
	for _, qc := range ds.QCResults {
		within(apr.CategoryQC, apr.FieldAssay, qc.AssayPercent)
		for _, v := range qc.DissolutionVessels {
			within(apr.CategoryQC, apr.FieldDissolution, v)
		}
		within(apr.CategoryQC, apr.FieldImpurityA, qc.ImpurityA)
		within(apr.CategoryQC, apr.FieldImpurityB, qc.ImpurityB)
	}
	for _, r := range ds.Environmental {
		within(apr.CategoryEnvironmental, apr.FieldTemperature, r.TemperatureC)
		within(apr.CategoryEnvironmental, apr.FieldHumidity, r.HumidityPct)
		within(apr.CategoryEnvironmental, apr.FieldDiffPressure, r.DiffPressurePa)
	}
	for _, r := range ds.RawMaterials {
		within(apr.CategoryRawMaterial, apr.FieldPurity, r.PurityPercent)
	}
}

func TestEngine_DerivedVerdicts(t *testing.T) {
	result := run(t, newTestEngine(), request(date(2023, 4, 1), date(2023, 6, 30), 10, apr.CategoryQC))

	assay := apr.MustBaseline(apr.CategoryQC, apr.FieldAssay)
	for _, qc := range result.Dataset.QCResults {
		assert.Equal(t, assay.InSpec(qc.AssayPercent), qc.AssayPass, "sample %s", qc.SampleID)
		want := qc.IdentificationPass && qc.AssayPass && qc.DissolutionPass && qc.ContentUniformityPass &&
			qc.ImpuritiesPass && qc.PhysicalPass && qc.MicroPass
		assert.Equal(t, want, qc.OverallPass, "sample %s", qc.SampleID)
	}
}

// ==================== Scenarios ====================

func meanHardness(batches []apr.Batch, press string, from, to time.Time) (float64, int) {
	sum, n := 0.0, 0
	for _, b := range batches {
		if b.EquipmentID != press || b.ManufacturingDate.Before(from) || b.ManufacturingDate.After(to) {
			continue
		}
		sum += b.Hardness
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

func TestEngine_PressWearIsDetectable(t *testing.T) {
	result := run(t, newTestEngine(), request(date(2021, 7, 1), date(2021, 11, 30), 20, apr.CategoryBatch))
	batches := result.Dataset.Batches

	before, n1 := meanHardness(batches, "PRESS-A", date(2021, 7, 1), date(2021, 7, 31))
	late, n2 := meanHardness(batches, "PRESS-A", date(2021, 11, 15), date(2021, 11, 30))
	require.Greater(t, n1, 30)
	require.Greater(t, n2, 15)
	assert.Greater(t, late-before, 2.5, "Press-A hardness should drift upward late in the window")

	otherBefore, _ := meanHardness(batches, "PRESS-B", date(2021, 7, 1), date(2021, 7, 31))
	otherLate, _ := meanHardness(batches, "PRESS-B", date(2021, 11, 15), date(2021, 11, 30))
	assert.InDelta(t, otherBefore, otherLate, 1.0, "other presses are unaffected")
}

func TestEngine_NilRegistryIsBaseline(t *testing.T) {
	e := NewEngine(nil, WithWorkers(2))
	result := run(t, e, request(date(2020, 4, 1), date(2020, 4, 10), 20, apr.CategoryBatch))
	assert.Len(t, result.Dataset.Batches, 200)
}

// ==================== Failures ====================

func TestEngine_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  apr.GenerationRequest
	}{
		{"inverted range", request(date(2025, 2, 1), date(2025, 1, 1), 5)},
		{"zero batches", request(date(2025, 1, 1), date(2025, 1, 2), 0)},
		{"too many batches", request(date(2025, 1, 1), date(2025, 1, 2), 101)},
		{"range too long", request(date(2024, 1, 1), date(2025, 1, 2), 1)},
		{"missing dates", apr.GenerationRequest{BatchesPerDay: 1}},
		{"unknown category", apr.GenerationRequest{
			StartDate:     date(2025, 1, 1),
			EndDate:       date(2025, 1, 31),
			BatchesPerDay: 5,
			Categories:    apr.CategorySet{apr.CategoryBatch, "bogus"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestEngine().Run(context.Background(), tt.req)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, shared.ErrValidation), "got %v", err)
		})
	}
}

func TestEngine_SingleDayHistoryFails(t *testing.T) {
	for _, c := range []apr.Category{apr.CategoryComplaint, apr.CategoryCAPA} {
		t.Run(string(c), func(t *testing.T) {
			_, err := newTestEngine().Run(context.Background(), request(date(2025, 1, 1), date(2025, 1, 1), 5, c))
			assert.True(t, errors.Is(err, shared.ErrIntegrity), "got %v", err)
		})
	}

	t.Run("root categories are fine on one day", func(t *testing.T) {
		result := run(t, newTestEngine(), request(date(2025, 1, 1), date(2025, 1, 1), 5, apr.CategoryBatch, apr.CategoryEnvironmental))
		assert.Len(t, result.Dataset.Batches, 5)
		assert.NotEmpty(t, result.Dataset.Environmental)
	})
}

func TestEngine_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestEngine().Run(ctx, request(date(2025, 1, 1), date(2025, 12, 31), 20))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrCancelled), "got %v", err)
	require.NotNil(t, result)
	assert.Equal(t, StatusCancelled, result.Status)
	assert.Nil(t, result.Dataset)
}

func TestClosure(t *testing.T) {
	tests := []struct {
		name string
		in   []apr.Category
		want apr.CategorySet
	}{
		{"batch only", []apr.Category{apr.CategoryBatch}, apr.CategorySet{apr.CategoryBatch}},
		{"release needs qc and batch", []apr.Category{apr.CategoryBatchRelease},
			apr.CategorySet{apr.CategoryBatch, apr.CategoryQC, apr.CategoryBatchRelease}},
		{"complaint pulls capa", []apr.Category{apr.CategoryComplaint},
			apr.CategorySet{apr.CategoryBatch, apr.CategoryQC, apr.CategoryComplaint, apr.CategoryCAPA}},
		{"environmental stands alone", []apr.Category{apr.CategoryEnvironmental}, apr.CategorySet{apr.CategoryEnvironmental}},
		{"stability needs batches", []apr.Category{apr.CategoryStability},
			apr.CategorySet{apr.CategoryBatch, apr.CategoryStability}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, closure(apr.NewCategorySet(tt.in...)))
		})
	}
}
