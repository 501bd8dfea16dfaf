package dto

import (
	"time"

	"github.com/nyos/apr/internal/application/generation"
	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/shared"
)

// GenerationOptions are the knobs shared by every generation request
type GenerationOptions struct {
	BatchesPerDay int      `json:"batches_per_day" binding:"omitempty,min=1"`
	DataTypes     []string `json:"data_types" binding:"omitempty,dive,apr_category"`
	Seed          *int64   `json:"seed"`
	ProductCode   string   `json:"product_code" binding:"omitempty,max=30"`
}

func (o GenerationOptions) input(p generation.Period) generation.Input {
	return generation.Input{
		Period:        p,
		BatchesPerDay: o.BatchesPerDay,
		DataTypes:     o.DataTypes,
		Seed:          o.Seed,
		ProductCode:   o.ProductCode,
	}
}

// CustomRangeRequest asks for an arbitrary inclusive date range
type CustomRangeRequest struct {
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
	GenerationOptions
}

// ToInput converts the request into a service input
func (r CustomRangeRequest) ToInput() (generation.Input, error) {
	start, err := time.Parse(apr.DateLayout, r.StartDate)
	if err != nil {
		return generation.Input{}, shared.NewValidationError("invalid start_date %q", r.StartDate)
	}
	end, err := time.Parse(apr.DateLayout, r.EndDate)
	if err != nil {
		return generation.Input{}, shared.NewValidationError("invalid end_date %q", r.EndDate)
	}
	return r.input(generation.CustomPeriod(start, end)), nil
}

// MonthRequest asks for one calendar month
type MonthRequest struct {
	Year  int `json:"year" binding:"required"`
	Month int `json:"month" binding:"required,min=1,max=12"`
	GenerationOptions
}

// ToInput converts the request into a service input
func (r MonthRequest) ToInput() (generation.Input, error) {
	if err := generation.ValidateMonth(r.Year, r.Month); err != nil {
		return generation.Input{}, err
	}
	return r.input(generation.MonthPeriod(r.Year, time.Month(r.Month))), nil
}

// YearRequest asks for one calendar year
type YearRequest struct {
	Year int `json:"year" binding:"required"`
	GenerationOptions
}

// ToInput converts the request into a service input
func (r YearRequest) ToInput() (generation.Input, error) {
	if err := generation.ValidateYear(r.Year); err != nil {
		return generation.Input{}, err
	}
	return r.input(generation.YearPeriod(r.Year)), nil
}

// SingleQuery holds the query string of the single-category CSV route
type SingleQuery struct {
	Year          int    `form:"year" binding:"required"`
	Month         int    `form:"month" binding:"required,min=1,max=12"`
	BatchesPerDay int    `form:"batches_per_day" binding:"omitempty,min=1"`
	Seed          *int64 `form:"seed"`
}

// RunListQuery holds the query string of the run ledger listing
type RunListQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// PreviewResponse is the manifest of a run that produced no files
type PreviewResponse = generation.Manifest

// ScenariosResponse lists the active scenario calendar
type ScenariosResponse struct {
	TotalScenarios int                          `json:"total_scenarios"`
	Scenarios      []generation.ScenarioSummary `json:"scenarios"`
}

// DataTypesResponse lists the exportable categories
type DataTypesResponse struct {
	Total     int                `json:"total"`
	DataTypes []apr.CategoryInfo `json:"data_types"`
}

// RunResponse is a run ledger entry
type RunResponse struct {
	ID            string     `json:"id"`
	Operation     string     `json:"operation"`
	Granularity   string     `json:"granularity"`
	PeriodStart   string     `json:"period_start"`
	PeriodEnd     string     `json:"period_end"`
	Seed          int64      `json:"seed"`
	BatchesPerDay int        `json:"batches_per_day"`
	ProductCode   string     `json:"product_code"`
	DataTypes     []string   `json:"data_types"`
	Status        string     `json:"status"`
	TotalRecords  int        `json:"total_records"`
	ArchiveKey    string     `json:"archive_key,omitempty"`
	Error         string     `json:"error,omitempty"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	DurationMs    int64      `json:"duration_ms"`
}

// NewRunResponse converts a ledger entry
func NewRunResponse(r *apr.Run) RunResponse {
	return RunResponse{
		ID:            r.ID.String(),
		Operation:     r.Operation,
		Granularity:   r.Granularity,
		PeriodStart:   r.PeriodStart.Format(apr.DateLayout),
		PeriodEnd:     r.PeriodEnd.Format(apr.DateLayout),
		Seed:          r.Seed,
		BatchesPerDay: r.BatchesPerDay,
		ProductCode:   r.ProductCode,
		DataTypes:     r.Categories,
		Status:        string(r.Status),
		TotalRecords:  r.TotalRecords,
		ArchiveKey:    r.ArchiveKey,
		Error:         r.Error,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
		DurationMs:    r.Duration().Milliseconds(),
	}
}
