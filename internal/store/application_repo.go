package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/hireflow/api/internal/model"
)

// ApplicationRepository handles job application persistence
type ApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create inserts a new application record
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

// GetByID retrieves an application by its id
func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*model.Application, error) {
	var app model.Application
	if err := r.db.WithContext(ctx).First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// ListByJob returns all applications submitted to one job posting
func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID string) ([]model.Application, error) {
	var apps []model.Application
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// ListByCandidate returns all applications submitted by one candidate
func (r *ApplicationRepository) ListByCandidate(ctx context.Context, candidateID string) ([]model.Application, error) {
	var apps []model.Application
	if err := r.db.WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("created_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateStatus sets the reviewer-controlled overall status
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus) error {
	result := r.db.WithContext(ctx).
		Model(&model.Application{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
