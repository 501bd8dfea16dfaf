package generation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/shared"
)

func TestPeriods(t *testing.T) {
	tests := []struct {
		name      string
		period    Period
		wantStart time.Time
		wantEnd   time.Time
		wantLabel string
	}{
		{"month", MonthPeriod(2025, time.January), date(2025, 1, 1), date(2025, 1, 31), "2025-01"},
		{"leap february", MonthPeriod(2024, time.February), date(2024, 2, 1), date(2024, 2, 29), "2024-02"},
		{"year", YearPeriod(2023), date(2023, 1, 1), date(2023, 12, 31), "2023"},
		{"custom", CustomPeriod(date(2025, 1, 10).Add(5*time.Hour), date(2025, 3, 2)), date(2025, 1, 10), date(2025, 3, 2), "2025-01-10_2025-03-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStart, tt.period.Start)
			assert.Equal(t, tt.wantEnd, tt.period.End)
			assert.Equal(t, tt.wantLabel, tt.period.Label())
			assert.True(t, tt.period.Contains(tt.wantEnd.Add(23*time.Hour)))
			assert.False(t, tt.period.Contains(tt.wantEnd.AddDate(0, 0, 1)))
			assert.False(t, tt.period.Contains(tt.wantStart.Add(-time.Hour)))
		})
	}
}

func TestValidateMonth(t *testing.T) {
	assert.NoError(t, ValidateMonth(2025, 12))
	for _, tc := range [][2]int{{2025, 0}, {2025, 13}, {1999, 5}, {2101, 1}} {
		err := ValidateMonth(tc[0], tc[1])
		assert.True(t, errors.Is(err, shared.ErrValidation), "year %d month %d", tc[0], tc[1])
	}
}

func TestFileNames(t *testing.T) {
	p := MonthPeriod(2025, time.March)
	assert.Equal(t, "manufacturing_2025-03.csv", FileName(apr.CategoryBatch, p))
	assert.Equal(t, "raw_materials_2025-03.csv", FileName(apr.CategoryRawMaterial, p))
	assert.Equal(t, "apr_data_2025-03.zip", ArchiveName(p))
	assert.Equal(t, "apr_data_2025.zip", ArchiveName(YearPeriod(2025)))
}

func TestTile_BatchOnlyManifest(t *testing.T) {
	req := request(date(2025, 1, 1), date(2025, 1, 31), 20, apr.CategoryBatch)
	result := run(t, newTestEngine(), req)

	tile := NewTile(result.Dataset, MonthPeriod(2025, time.January), result.Request.Categories)
	m := tile.Manifest("run-1", result.Request)

	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, int64(42), m.Seed)
	assert.Equal(t, GranularityMonth, m.Granularity)
	assert.Equal(t, "2025-01-01", m.PeriodStart)
	assert.Equal(t, "2025-01-31", m.PeriodEnd)
	assert.Equal(t, map[apr.Category]int{apr.CategoryBatch: 620}, m.TotalRecords)
	assert.Equal(t, []string{"manufacturing_2025-01.csv"}, m.FilesGenerated)
	assert.Equal(t, 620, m.Records())
	assert.Equal(t, "PARA-500-TAB", m.ProductCode)
	require.Len(t, m.Categories, 1)
	assert.Equal(t, CategoryManifest{
		Category:    apr.CategoryBatch,
		RecordCount: 620,
		DateRange:   DateRange{Start: "2025-01-01", End: "2025-01-31"},
		FileName:    "manufacturing_2025-01.csv",
	}, m.Categories[0])
}

func TestTile_DropsRecordsOutsidePeriod(t *testing.T) {
	req := request(date(2025, 1, 1), date(2025, 1, 31), 10, apr.CategoryBatch, apr.CategoryQC, apr.CategoryBatchRelease)
	result := run(t, newTestEngine(), req)

	tile := NewTile(result.Dataset, MonthPeriod(2025, time.January), result.Request.Categories)
	assert.Equal(t, len(result.Dataset.Batches), tile.Count(apr.CategoryBatch))
	// batches made on the last days are tested and released in February
	assert.Less(t, tile.Count(apr.CategoryQC), len(result.Dataset.QCResults))
	assert.Less(t, tile.Count(apr.CategoryBatchRelease), len(result.Dataset.Releases))
	for _, qc := range tile.Dataset.QCResults {
		assert.False(t, qc.TestDate.After(date(2025, 1, 31)))
	}
	assert.Equal(t, tile.Count(apr.CategoryBatch)+tile.Count(apr.CategoryQC)+tile.Count(apr.CategoryBatchRelease), tile.TotalRecords())
}

func TestTile_SplitMonthly(t *testing.T) {
	req := request(date(2025, 1, 15), date(2025, 3, 10), 5, apr.CategoryBatch, apr.CategoryEnvironmental)
	result := run(t, newTestEngine(), req)

	tile := NewTile(result.Dataset, CustomPeriod(req.StartDate, req.EndDate), result.Request.Categories)
	parts := tile.SplitMonthly()
	require.Len(t, parts, 3)

	assert.Equal(t, date(2025, 1, 15), parts[0].Period.Start)
	assert.Equal(t, date(2025, 1, 31), parts[0].Period.End)
	assert.Equal(t, date(2025, 2, 1), parts[1].Period.Start)
	assert.Equal(t, date(2025, 2, 28), parts[1].Period.End)
	assert.Equal(t, date(2025, 3, 10), parts[2].Period.End)
	assert.Equal(t, "2025-02", parts[1].Period.Label())

	total := 0
	for _, p := range parts {
		total += p.TotalRecords()
	}
	assert.Equal(t, tile.TotalRecords(), total)
	assert.Equal(t, 17*5, parts[0].Count(apr.CategoryBatch))
}
