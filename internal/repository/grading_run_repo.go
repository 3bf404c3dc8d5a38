package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-grader/internal/models"
)

// GradingRunRepository exposes persistence helpers for grading runs.
type GradingRunRepository interface {
	Create(ctx context.Context, run *models.GradingRun) error
	GetByRunID(ctx context.Context, runID string) (models.GradingRun, error)
	ListRecent(ctx context.Context, limit int) ([]models.GradingRun, error)
}

// NewGradingRunRepository constructs a grading run repository.
func NewGradingRunRepository(db *gorm.DB) GradingRunRepository {
	return &gradingRunRepository{db: db}
}

type gradingRunRepository struct {
	db *gorm.DB
}

func (r *gradingRunRepository) Create(ctx context.Context, run *models.GradingRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *gradingRunRepository) GetByRunID(ctx context.Context, runID string) (models.GradingRun, error) {
	var run models.GradingRun
	err := r.db.WithContext(ctx).
		Preload("Cases", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Where("run_id = ?", runID).
		First(&run).Error
	if err != nil {
		return models.GradingRun{}, err
	}
	return run, nil
}

func (r *gradingRunRepository) ListRecent(ctx context.Context, limit int) ([]models.GradingRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []models.GradingRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
