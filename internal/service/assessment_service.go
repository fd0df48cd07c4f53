package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/hireflow/api/internal/client"
	"github.com/hireflow/api/internal/config"
	"github.com/hireflow/api/internal/mail"
	"github.com/hireflow/api/internal/model"
	"github.com/hireflow/api/internal/store"
)

var ErrSessionNotFound = errors.New("session not found")

// AssessmentService manages MCQ assessment sessions against the
// external assessment service
type AssessmentService struct {
	sessions *store.AssessmentRepository
	provider client.AssessmentProvider
	mailer   mail.Notifier
	cfg      config.AssessmentConfig
	pipeline config.PipelineConfig
}

func NewAssessmentService(sessions *store.AssessmentRepository, provider client.AssessmentProvider, mailer mail.Notifier, cfg config.AssessmentConfig, pipeline config.PipelineConfig) *AssessmentService {
	return &AssessmentService{
		sessions: sessions,
		provider: provider,
		mailer:   mailer,
		cfg:      cfg,
		pipeline: pipeline,
	}
}

// IsConfigured reports whether the external assessment service is reachable
func (s *AssessmentService) IsConfigured() bool {
	return s.provider != nil && s.provider.IsConfigured()
}

// ReferenceCode builds the code that ties an external assessment
// session back to an application
func ReferenceCode(applicationID string) string {
	return fmt.Sprintf("APP-%s", applicationID)
}

// Begin starts an assessment for the candidate, persists the session
// and emails the invitation link. Email delivery is best-effort.
func (s *AssessmentService) Begin(ctx context.Context, app *model.Application, job *model.Job) (*model.AssessmentSession, error) {
	resp, err := s.provider.StartAssessment(ctx, &client.StartAssessmentRequest{
		FullName:             app.CandidateName,
		PositionApplied:      job.Title,
		CompanyApplied:       job.Company,
		ReferenceCode:        ReferenceCode(app.ID),
		JobDescription:       job.Description,
		NumJobQuestions:      s.pipeline.NumJobQuestions,
		NumSoftQuestions:     s.pipeline.NumSoftQuestions,
		NumAptitudeQuestions: s.pipeline.NumAptitudeQuestions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start assessment: %w", err)
	}

	session := &model.AssessmentSession{
		SessionID:       resp.SessionID,
		ApplicationID:   app.ID,
		CandidateName:   app.CandidateName,
		CandidateEmail:  app.CandidateEmail,
		PositionApplied: job.Title,
		CompanyApplied:  job.Company,
		ReferenceCode:   ReferenceCode(app.ID),
		TotalQuestions:  resp.TotalQuestions,
		CreatedAt:       time.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save assessment session: %w", err)
	}

	if s.mailer != nil && s.mailer.IsConfigured() {
		assessmentURL := fmt.Sprintf("%s/mcq-assessment?session_id=%s", s.cfg.FrontendURL, session.SessionID)
		go func() {
			if err := s.mailer.SendAssessmentInvite(session.CandidateEmail, session.CandidateName, session.PositionApplied, session.CompanyApplied, assessmentURL, session.TotalQuestions); err != nil {
				log.Printf("[Assessment] Failed to send invite for session %s: %v", session.SessionID, err)
			}
		}()
	}

	return session, nil
}

// HandleCompletion records a finished assessment reported by the
// external service. Safe to call more than once for the same result.
func (s *AssessmentService) HandleCompletion(ctx context.Context, req *model.AssessmentCompletedRequest) error {
	err := s.sessions.MarkCompleted(ctx, req.SessionID, req.Score, req.DetailedResults)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// GetStatus returns a session, re-checking the external service for a
// result when the local record is still incomplete
func (s *AssessmentService) GetStatus(ctx context.Context, sessionID string) (*model.AssessmentSession, error) {
	session, err := s.sessions.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if session.Completed || s.provider == nil || !s.provider.IsConfigured() {
		return session, nil
	}

	result, err := s.provider.FetchResult(ctx, sessionID)
	if err != nil {
		// Stale local state is better than a failed status read
		log.Printf("[Assessment] Result check failed for session %s: %v", sessionID, err)
		return session, nil
	}

	if result.Completed && result.Score != nil {
		if err := s.sessions.MarkCompleted(ctx, sessionID, result.Score.Percentage, nil); err != nil {
			return nil, err
		}
		return s.sessions.GetBySession(ctx, sessionID)
	}

	return session, nil
}
