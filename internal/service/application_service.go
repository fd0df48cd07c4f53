package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"github.com/hireflow/api/internal/config"
	"github.com/hireflow/api/internal/model"
	"github.com/hireflow/api/internal/store"
)

const TaskTypePipeline = "pipeline:process"

var (
	ErrJobNotFound         = errors.New("job not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrNotJobOwner         = errors.New("not the job owner")
)

// ApplicationService handles application submission and status queries
type ApplicationService struct {
	apps        *store.ApplicationRepository
	jobs        *store.JobRepository
	ledger      store.Ledger
	asynqClient *asynq.Client
	pipeline    config.PipelineConfig
}

func NewApplicationService(apps *store.ApplicationRepository, jobs *store.JobRepository, ledger store.Ledger, asynqClient *asynq.Client, pipeline config.PipelineConfig) *ApplicationService {
	return &ApplicationService{
		apps:        apps,
		jobs:        jobs,
		ledger:      ledger,
		asynqClient: asynqClient,
		pipeline:    pipeline,
	}
}

// Submit creates a new application and queues the screening pipeline for it
func (s *ApplicationService) Submit(ctx context.Context, candidateID, candidateName, candidateEmail string, req *model.ApplyRequest) (*model.Application, error) {
	job, err := s.jobs.GetByID(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to load job: %w", err)
	}

	app := &model.Application{
		ID:             uuid.New().String(),
		JobID:          job.ID,
		CandidateID:    candidateID,
		CandidateName:  candidateName,
		CandidateEmail: candidateEmail,
		ResumeURL:      req.ResumeURL,
		Status:         model.ApplicationStatusPending,
		CreatedAt:      time.Now(),
	}

	if err := s.apps.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to save application: %w", err)
	}

	task, err := newPipelineTask(app.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// The task deadline has to outlive the assessment poll window
	taskTimeout := s.pipeline.PollInterval*time.Duration(s.pipeline.PollMaxAttempts) + 30*time.Minute

	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("pipeline"),
		asynq.MaxRetry(0),
		asynq.Timeout(taskTimeout),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return app, nil
}

// GetStatus returns the application together with its pipeline progress
func (s *ApplicationService) GetStatus(ctx context.Context, applicationID string) (*model.ApplicationStatusResponse, error) {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	progress, err := s.ledger.Read(ctx, applicationID)
	if err != nil {
		if !errors.Is(err, store.ErrLedgerNotFound) {
			return nil, err
		}
		progress = model.NewStageLedger(app.CreatedAt)
	}

	return &model.ApplicationStatusResponse{
		ApplicationID: app.ID,
		Status:        app.Status,
		Progress:      progress,
	}, nil
}

// ListByCandidate returns all applications a candidate has submitted
func (s *ApplicationService) ListByCandidate(ctx context.Context, candidateID string) ([]model.ApplicationSummary, error) {
	apps, err := s.apps.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ApplicationSummary, 0, len(apps))
	for _, app := range apps {
		summary := model.ApplicationSummary{Application: app}

		if job, err := s.jobs.GetByID(ctx, app.JobID); err == nil {
			summary.JobTitle = job.Title
			summary.CompanyName = job.Company
		}
		if progress, err := s.ledger.Read(ctx, app.ID); err == nil {
			summary.Progress = progress
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// ListByJob returns all applications for a job owned by the recruiter
func (s *ApplicationService) ListByJob(ctx context.Context, jobID, recruiterID string) ([]model.ApplicationSummary, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.RecruiterID != recruiterID {
		return nil, ErrNotJobOwner
	}

	apps, err := s.apps.ListByJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ApplicationSummary, 0, len(apps))
	for _, app := range apps {
		summary := model.ApplicationSummary{
			Application: app,
			JobTitle:    job.Title,
			CompanyName: job.Company,
		}
		if progress, err := s.ledger.Read(ctx, app.ID); err == nil {
			summary.Progress = progress
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// UpdateStatus lets the job owner move an application to reviewed/accepted/rejected
func (s *ApplicationService) UpdateStatus(ctx context.Context, applicationID, recruiterID string, status model.ApplicationStatus) (*model.Application, error) {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, app.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to load job: %w", err)
	}
	if job.RecruiterID != recruiterID {
		return nil, ErrNotJobOwner
	}

	if err := s.apps.UpdateStatus(ctx, applicationID, status); err != nil {
		return nil, err
	}

	app.Status = status
	return app, nil
}

func newPipelineTask(applicationID string) (*asynq.Task, error) {
	data, err := json.Marshal(map[string]interface{}{
		"applicationId": applicationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePipeline, data), nil
}
