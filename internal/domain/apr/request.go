package apr

import (
	"time"

	"github.com/nyos/apr/internal/domain/shared"
)

// DateLayout is the calendar date format used on every wire and file boundary
const DateLayout = "2006-01-02"

// DefaultSeed is the run seed used when a request does not supply one
const DefaultSeed int64 = 42

// Limits bounds what a single request may ask for
type Limits struct {
	MaxBatchesPerDay int
	MaxRangeDays     int
}

// DefaultLimits mirrors the bounds of the original download API
func DefaultLimits() Limits {
	return Limits{
		MaxBatchesPerDay: 100,
		MaxRangeDays:     366,
	}
}

// GenerationRequest describes one generation run
type GenerationRequest struct {
	StartDate     time.Time
	EndDate       time.Time
	BatchesPerDay int
	Categories    CategorySet
	Seed          *int64
	ProductCode   string
}

// NewGenerationRequest parses wire values into a request. Dates use DateLayout.
func NewGenerationRequest(start, end string, batchesPerDay int, dataTypes []string, seed *int64) (GenerationRequest, error) {
	startDate, err := ParseDate(start)
	if err != nil {
		return GenerationRequest{}, err
	}
	endDate, err := ParseDate(end)
	if err != nil {
		return GenerationRequest{}, err
	}
	cats, err := ParseCategories(dataTypes)
	if err != nil {
		return GenerationRequest{}, err
	}
	return GenerationRequest{
		StartDate:     startDate,
		EndDate:       endDate,
		BatchesPerDay: batchesPerDay,
		Categories:    cats,
		Seed:          seed,
	}, nil
}

// ParseDate parses a calendar date into UTC midnight
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, shared.NewValidationError("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

// Day truncates t to UTC midnight
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Normalize fills defaults and truncates dates. It does not validate: a set
// holding an unknown category is left as is so Validate rejects it.
func (r GenerationRequest) Normalize() GenerationRequest {
	r.StartDate = Day(r.StartDate)
	r.EndDate = Day(r.EndDate)
	switch {
	case len(r.Categories) == 0:
		r.Categories = CategorySet(AllCategories())
	default:
		if _, unknown := r.Categories.Unknown(); !unknown {
			r.Categories = NewCategorySet(r.Categories...)
		}
	}
	if r.ProductCode == "" {
		r.ProductCode = Products[0].Code
	}
	return r
}

// Validate checks the request against its invariants and the given limits
func (r GenerationRequest) Validate(limits Limits) error {
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return shared.NewValidationError("start_date and end_date are required")
	}
	if r.EndDate.Before(r.StartDate) {
		return shared.NewValidationError("start_date %s is after end_date %s",
			r.StartDate.Format(DateLayout), r.EndDate.Format(DateLayout))
	}
	if r.BatchesPerDay < 1 {
		return shared.NewValidationError("batches_per_day must be at least 1, got %d", r.BatchesPerDay)
	}
	if limits.MaxBatchesPerDay > 0 && r.BatchesPerDay > limits.MaxBatchesPerDay {
		return shared.NewValidationError("batches_per_day must be at most %d, got %d", limits.MaxBatchesPerDay, r.BatchesPerDay)
	}
	if limits.MaxRangeDays > 0 && r.Days() > limits.MaxRangeDays {
		return shared.NewValidationError("date range spans %d days, limit is %d", r.Days(), limits.MaxRangeDays)
	}
	if c, unknown := r.Categories.Unknown(); unknown {
		return shared.NewValidationError("unknown data type %q", string(c))
	}
	if r.ProductCode != "" {
		if _, ok := ProductByCode(r.ProductCode); !ok {
			return shared.NewValidationError("unknown product_code %q", r.ProductCode)
		}
	}
	return nil
}

// Days returns the number of calendar days in the range, inclusive
func (r GenerationRequest) Days() int {
	return int(Day(r.EndDate).Sub(Day(r.StartDate)).Hours()/24) + 1
}

// EffectiveSeed returns the request seed or DefaultSeed
func (r GenerationRequest) EffectiveSeed() int64 {
	if r.Seed != nil {
		return *r.Seed
	}
	return DefaultSeed
}

// Product returns the product the request generates batches for
func (r GenerationRequest) Product() Product {
	if p, ok := ProductByCode(r.ProductCode); ok {
		return p
	}
	return Products[0]
}

// EachDay calls fn for every day in the range in order
func (r GenerationRequest) EachDay(fn func(i int, day time.Time)) {
	day := Day(r.StartDate)
	for i := 0; i < r.Days(); i++ {
		fn(i, day)
		day = day.AddDate(0, 0, 1)
	}
}
