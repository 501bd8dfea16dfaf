package apr

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a generation run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// Run is the audit entry of one generation request. It records what was
// asked for and how it ended, never the generated records themselves.
type Run struct {
	ID            uuid.UUID
	Operation     string
	Granularity   string
	PeriodStart   time.Time
	PeriodEnd     time.Time
	Seed          int64
	BatchesPerDay int
	ProductCode   string
	Categories    []string
	Status        RunStatus
	TotalRecords  int
	ArchiveKey    string
	Error         string
	StartedAt     time.Time
	FinishedAt    *time.Time
}

// NewRun creates a running ledger entry
func NewRun(operation, granularity string, req GenerationRequest) *Run {
	return &Run{
		ID:            uuid.New(),
		Operation:     operation,
		Granularity:   granularity,
		PeriodStart:   req.StartDate,
		PeriodEnd:     req.EndDate,
		Seed:          req.EffectiveSeed(),
		BatchesPerDay: req.BatchesPerDay,
		ProductCode:   req.ProductCode,
		Categories:    req.Categories.Strings(),
		Status:        RunStatusRunning,
		StartedAt:     time.Now().UTC(),
	}
}

// Finish moves the run to a terminal status
func (r *Run) Finish(status RunStatus, totalRecords int, err error) {
	now := time.Now().UTC()
	r.Status = status
	r.TotalRecords = totalRecords
	r.FinishedAt = &now
	if err != nil {
		r.Error = err.Error()
	}
}

// Duration returns how long the run took, or zero while it is running
func (r *Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunRepository defines the interface for run ledger persistence
type RunRepository interface {
	// Save creates or updates a run
	Save(ctx context.Context, run *Run) error

	// FindByID finds a run by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Run, error)

	// FindRecent lists the most recent runs, newest first
	FindRecent(ctx context.Context, limit int) ([]Run, error)
}
