package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hireflow/api/internal/model"
	"github.com/hireflow/api/internal/store"
)

// JobService handles job posting management
type JobService struct {
	jobs *store.JobRepository
}

func NewJobService(jobs *store.JobRepository) *JobService {
	return &JobService{jobs: jobs}
}

// Create posts a new job owned by the recruiter
func (s *JobService) Create(ctx context.Context, recruiterID string, req *model.CreateJobRequest) (*model.Job, error) {
	job := &model.Job{
		ID:          uuid.New().String(),
		RecruiterID: recruiterID,
		Title:       req.Title,
		Company:     req.Company,
		Description: req.Description,
		Location:    req.Location,
		CreatedAt:   time.Now(),
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get retrieves a job by id
func (s *JobService) Get(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// List returns open job postings, newest first
func (s *JobService) List(ctx context.Context, limit int) ([]model.Job, error) {
	return s.jobs.List(ctx, limit)
}
