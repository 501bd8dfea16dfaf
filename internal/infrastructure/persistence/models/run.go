// Package models holds the GORM row types of the run ledger.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nyos/apr/internal/domain/apr"
)

// RunModel is the generation_runs row
type RunModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CreatedAt     time.Time  `gorm:"not null"`
	UpdatedAt     time.Time  `gorm:"not null"`
	Operation     string     `gorm:"type:varchar(20);not null"`
	Granularity   string     `gorm:"type:varchar(10);not null"`
	PeriodStart   time.Time  `gorm:"type:date;not null"`
	PeriodEnd     time.Time  `gorm:"type:date;not null"`
	Seed          int64      `gorm:"not null"`
	BatchesPerDay int        `gorm:"not null"`
	ProductCode   string     `gorm:"type:varchar(30);not null"`
	Categories    string     `gorm:"type:text;not null"`
	Status        string     `gorm:"type:varchar(20);not null;index:idx_generation_runs_status"`
	TotalRecords  int        `gorm:"not null"`
	ArchiveKey    string     `gorm:"type:text;not null"`
	Error         string     `gorm:"type:text;not null"`
	StartedAt     time.Time  `gorm:"not null;index:idx_generation_runs_started_at,sort:desc"`
	FinishedAt    *time.Time
}

// TableName returns the table name for GORM
func (RunModel) TableName() string {
	return "generation_runs"
}

// RunModelFromDomain converts a domain run to a row
func RunModelFromDomain(r *apr.Run) *RunModel {
	return &RunModel{
		ID:            r.ID,
		Operation:     r.Operation,
		Granularity:   r.Granularity,
		PeriodStart:   r.PeriodStart,
		PeriodEnd:     r.PeriodEnd,
		Seed:          r.Seed,
		BatchesPerDay: r.BatchesPerDay,
		ProductCode:   r.ProductCode,
		Categories:    strings.Join(r.Categories, ","),
		Status:        string(r.Status),
		TotalRecords:  r.TotalRecords,
		ArchiveKey:    r.ArchiveKey,
		Error:         r.Error,
		StartedAt:     r.StartedAt,
		FinishedAt:    r.FinishedAt,
	}
}

// ToDomain converts the row back to a domain run
func (m *RunModel) ToDomain() *apr.Run {
	var categories []string
	if m.Categories != "" {
		categories = strings.Split(m.Categories, ",")
	}
	return &apr.Run{
		ID:            m.ID,
		Operation:     m.Operation,
		Granularity:   m.Granularity,
		PeriodStart:   m.PeriodStart.UTC(),
		PeriodEnd:     m.PeriodEnd.UTC(),
		Seed:          m.Seed,
		BatchesPerDay: m.BatchesPerDay,
		ProductCode:   m.ProductCode,
		Categories:    categories,
		Status:        apr.RunStatus(m.Status),
		TotalRecords:  m.TotalRecords,
		ArchiveKey:    m.ArchiveKey,
		Error:         m.Error,
		StartedAt:     m.StartedAt.UTC(),
		FinishedAt:    m.FinishedAt,
	}
}
