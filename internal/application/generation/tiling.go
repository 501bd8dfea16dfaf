package generation

import (
	"fmt"
	"time"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/shared"
)

// Granularity is the reporting unit of a period
type Granularity string

const (
	GranularityMonth  Granularity = "month"
	GranularityYear   Granularity = "year"
	GranularityCustom Granularity = "custom"
)

// Period is an inclusive range of calendar days
type Period struct {
	Granularity Granularity
	Start       time.Time
	End         time.Time
}

// MonthPeriod covers one calendar month
func MonthPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Granularity: GranularityMonth, Start: start, End: start.AddDate(0, 1, -1)}
}

// YearPeriod covers one calendar year
func YearPeriod(year int) Period {
	return Period{
		Granularity: GranularityYear,
		Start:       time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// CustomPeriod covers an arbitrary range
func CustomPeriod(start, end time.Time) Period {
	return Period{Granularity: GranularityCustom, Start: apr.Day(start), End: apr.Day(end)}
}

// ValidateMonth checks wire values of a month period
func ValidateMonth(year, month int) error {
	if err := ValidateYear(year); err != nil {
		return err
	}
	if month < 1 || month > 12 {
		return shared.NewValidationError("month must be between 1 and 12, got %d", month)
	}
	return nil
}

// ValidateYear checks the wire value of a year
func ValidateYear(year int) error {
	if year < 2000 || year > 2100 {
		return shared.NewValidationError("year must be between 2000 and 2100, got %d", year)
	}
	return nil
}

// Contains reports whether t falls on a day of the period
func (p Period) Contains(t time.Time) bool {
	d := apr.Day(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Label names the period in file names: 2025-01, 2025 or 2025-01-01_2025-03-31
func (p Period) Label() string {
	switch p.Granularity {
	case GranularityMonth:
		return p.Start.Format("2006-01")
	case GranularityYear:
		return p.Start.Format("2006")
	default:
		return p.Start.Format(apr.DateLayout) + "_" + p.End.Format(apr.DateLayout)
	}
}

// Tile is the slice of a run that falls inside one period
type Tile struct {
	Period     Period
	Categories apr.CategorySet
	Dataset    apr.Dataset
}

// NewTile selects the records of cats whose record date lies in the period.
// Records dated after the period end, such as late stability pulls, are left out.
func NewTile(ds *apr.Dataset, p Period, cats apr.CategorySet) *Tile {
	t := &Tile{Period: p, Categories: cats}
	in := p.Contains
	if cats.Has(apr.CategoryBatch) {
		t.Dataset.Batches = within(ds.Batches, in, func(r apr.Batch) time.Time { return r.ManufacturingDate })
	}
	if cats.Has(apr.CategoryQC) {
		t.Dataset.QCResults = within(ds.QCResults, in, func(r apr.QCResult) time.Time { return r.TestDate })
	}
	if cats.Has(apr.CategoryComplaint) {
		t.Dataset.Complaints = within(ds.Complaints, in, func(r apr.Complaint) time.Time { return r.ComplaintDate })
	}
	if cats.Has(apr.CategoryCAPA) {
		t.Dataset.CAPAs = within(ds.CAPAs, in, func(r apr.CAPA) time.Time { return r.OpenDate })
	}
	if cats.Has(apr.CategoryEnvironmental) {
		t.Dataset.Environmental = within(ds.Environmental, in, func(r apr.EnvironmentalReading) time.Time { return r.MonitoringDate })
	}
	if cats.Has(apr.CategoryEquipment) {
		t.Dataset.Calibrations = within(ds.Calibrations, in, func(r apr.EquipmentCalibration) time.Time { return r.ScheduledDate })
	}
	if cats.Has(apr.CategoryStability) {
		t.Dataset.Stability = within(ds.Stability, in, func(r apr.StabilityResult) time.Time { return r.TestDate })
	}
	if cats.Has(apr.CategoryRawMaterial) {
		t.Dataset.RawMaterials = within(ds.RawMaterials, in, func(r apr.RawMaterialReceipt) time.Time { return r.ReceiptDate })
	}
	if cats.Has(apr.CategoryBatchRelease) {
		t.Dataset.Releases = within(ds.Releases, in, func(r apr.BatchRelease) time.Time { return r.DecisionDate })
	}
	return t
}

func within[T any](records []T, in func(time.Time) bool, date func(T) time.Time) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if in(date(r)) {
			out = append(out, r)
		}
	}
	return out
}

// SplitMonthly cuts the tile into one tile per calendar month it touches
func (t *Tile) SplitMonthly() []*Tile {
	var out []*Tile
	cur := time.Date(t.Period.Start.Year(), t.Period.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(t.Period.End) {
		p := MonthPeriod(cur.Year(), cur.Month())
		if p.Start.Before(t.Period.Start) {
			p.Start = t.Period.Start
		}
		if p.End.After(t.Period.End) {
			p.End = t.Period.End
		}
		out = append(out, NewTile(&t.Dataset, p, t.Categories))
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

// Count returns the number of records of a category in the tile
func (t *Tile) Count(c apr.Category) int { return t.Dataset.Count(c) }

// TotalRecords sums the records of every category in the tile
func (t *Tile) TotalRecords() int {
	total := 0
	for _, c := range t.Categories {
		total += t.Count(c)
	}
	return total
}

// DateRange spans the record dates of one category file
type DateRange struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// CategoryManifest describes one exported file
type CategoryManifest struct {
	Category    apr.Category `json:"category"`
	RecordCount int          `json:"record_count"`
	DateRange   DateRange    `json:"date_range"`
	FileName    string       `json:"file_name"`
	Checksum    string       `json:"checksum,omitempty"`
}

// Manifest summarizes a tile. TotalRecords holds the row count of every
// category file and FilesGenerated their names, in category order. Preview
// manifests carry no checksums because no file payload is produced.
type Manifest struct {
	RunID          string               `json:"run_id"`
	Seed           int64                `json:"seed"`
	Granularity    Granularity          `json:"granularity"`
	PeriodStart    string               `json:"period_start"`
	PeriodEnd      string               `json:"period_end"`
	BatchesPerDay  int                  `json:"batches_per_day"`
	ProductCode    string               `json:"product_code"`
	TotalRecords   map[apr.Category]int `json:"total_records"`
	FilesGenerated []string             `json:"files_generated"`
	Categories     []CategoryManifest   `json:"categories"`
}

// Records sums the per-category record counts
func (m Manifest) Records() int {
	total := 0
	for _, n := range m.TotalRecords {
		total += n
	}
	return total
}

// Manifest builds the tile's manifest for a run
func (t *Tile) Manifest(runID string, req apr.GenerationRequest) Manifest {
	m := Manifest{
		RunID:          runID,
		Seed:           req.EffectiveSeed(),
		Granularity:    t.Period.Granularity,
		PeriodStart:    t.Period.Start.Format(apr.DateLayout),
		PeriodEnd:      t.Period.End.Format(apr.DateLayout),
		BatchesPerDay:  req.BatchesPerDay,
		ProductCode:    req.ProductCode,
		TotalRecords:   make(map[apr.Category]int, len(t.Categories)),
		FilesGenerated: make([]string, 0, len(t.Categories)),
		Categories:     make([]CategoryManifest, 0, len(t.Categories)),
	}
	for _, c := range t.Categories {
		name := FileName(c, t.Period)
		m.TotalRecords[c] = t.Count(c)
		m.FilesGenerated = append(m.FilesGenerated, name)
		m.Categories = append(m.Categories, CategoryManifest{
			Category:    c,
			RecordCount: t.Count(c),
			DateRange:   t.dateRange(c),
			FileName:    name,
		})
	}
	return m
}

// FileName is the archive entry name of a category file
func FileName(c apr.Category, p Period) string {
	return fmt.Sprintf("%s_%s.csv", c.Info().FileStem, p.Label())
}

// ArchiveName is the download name of a tile archive
func ArchiveName(p Period) string {
	return fmt.Sprintf("apr_data_%s.zip", p.Label())
}

func (t *Tile) dateRange(c apr.Category) DateRange {
	var dates []time.Time
	ds := &t.Dataset
	switch c {
	case apr.CategoryBatch:
		dates = collect(ds.Batches, func(r apr.Batch) time.Time { return r.ManufacturingDate })
	case apr.CategoryQC:
		dates = collect(ds.QCResults, func(r apr.QCResult) time.Time { return r.TestDate })
	case apr.CategoryComplaint:
		dates = collect(ds.Complaints, func(r apr.Complaint) time.Time { return r.ComplaintDate })
	case apr.CategoryCAPA:
		dates = collect(ds.CAPAs, func(r apr.CAPA) time.Time { return r.OpenDate })
	case apr.CategoryEnvironmental:
		dates = collect(ds.Environmental, func(r apr.EnvironmentalReading) time.Time { return r.MonitoringDate })
	case apr.CategoryEquipment:
		dates = collect(ds.Calibrations, func(r apr.EquipmentCalibration) time.Time { return r.ScheduledDate })
	case apr.CategoryStability:
		dates = collect(ds.Stability, func(r apr.StabilityResult) time.Time { return r.TestDate })
	case apr.CategoryRawMaterial:
		dates = collect(ds.RawMaterials, func(r apr.RawMaterialReceipt) time.Time { return r.ReceiptDate })
	case apr.CategoryBatchRelease:
		dates = collect(ds.Releases, func(r apr.BatchRelease) time.Time { return r.DecisionDate })
	}
	if len(dates) == 0 {
		return DateRange{}
	}
	lo, hi := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
	}
	return DateRange{Start: lo.Format(apr.DateLayout), End: hi.Format(apr.DateLayout)}
}

func collect[T any](records []T, date func(T) time.Time) []time.Time {
	out := make([]time.Time, len(records))
	for i, r := range records {
		out[i] = date(r)
	}
	return out
}
