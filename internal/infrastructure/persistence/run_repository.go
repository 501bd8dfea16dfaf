package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/shared"
	"github.com/nyos/apr/internal/infrastructure/persistence/models"
)

// GormRunRepository implements apr.RunRepository using GORM
type GormRunRepository struct {
	db *gorm.DB
}

// NewGormRunRepository creates a new GormRunRepository
func NewGormRunRepository(db *gorm.DB) *GormRunRepository {
	return &GormRunRepository{db: db}
}

// Save inserts the run, or overwrites it when the ID already exists
func (r *GormRunRepository) Save(ctx context.Context, run *apr.Run) error {
	model := models.RunModelFromDomain(run)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"updated_at", "status", "total_records", "archive_key", "error", "finished_at",
			}),
		}).
		Create(model).Error
}

// FindByID finds a run by its ID
func (r *GormRunRepository) FindByID(ctx context.Context, id uuid.UUID) (*apr.Run, error) {
	var model models.RunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecent lists the most recent runs, newest first
func (r *GormRunRepository) FindRecent(ctx context.Context, limit int) ([]apr.Run, error) {
	var rows []models.RunModel
	if err := r.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	runs := make([]apr.Run, 0, len(rows))
	for i := range rows {
		runs = append(runs, *rows[i].ToDomain())
	}
	return runs, nil
}

// Ensure GormRunRepository implements RunRepository
var _ apr.RunRepository = (*GormRunRepository)(nil)
