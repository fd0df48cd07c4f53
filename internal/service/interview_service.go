package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"gorm.io/gorm"

	"github.com/hireflow/api/internal/client"
	"github.com/hireflow/api/internal/config"
	"github.com/hireflow/api/internal/mail"
	"github.com/hireflow/api/internal/model"
	"github.com/hireflow/api/internal/store"
)

// InterviewService manages interview sessions against the external
// interview generation service
type InterviewService struct {
	sessions *store.InterviewRepository
	provider client.InterviewProvider
	mailer   mail.Notifier
	cfg      config.InterviewConfig
}

func NewInterviewService(sessions *store.InterviewRepository, provider client.InterviewProvider, mailer mail.Notifier, cfg config.InterviewConfig) *InterviewService {
	return &InterviewService{
		sessions: sessions,
		provider: provider,
		mailer:   mailer,
		cfg:      cfg,
	}
}

// IsConfigured reports whether the external interview service is reachable
func (s *InterviewService) IsConfigured() bool {
	return s.provider != nil && s.provider.IsConfigured()
}

// Begin generates an interview for the candidate, persists the session
// and emails the invitation link. Email delivery is best-effort.
func (s *InterviewService) Begin(ctx context.Context, applicationID, fullName, email, jobRole string) (*model.InterviewSession, error) {
	resp, err := s.provider.StartInterview(ctx, &client.StartInterviewRequest{
		JobRole: jobRole,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start interview: %w", err)
	}

	session := &model.InterviewSession{
		SessionID:     resp.SessionID,
		ApplicationID: applicationID,
		FullName:      fullName,
		Email:         email,
		JobRole:       jobRole,
		Questions:     resp.Questions,
		Status:        model.InterviewStatusPending,
		CreatedAt:     time.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save interview session: %w", err)
	}

	if s.mailer != nil && s.mailer.IsConfigured() {
		interviewURL := fmt.Sprintf("%s/?interview_id=%s&email=%s",
			s.cfg.BaseURL, session.SessionID, url.QueryEscape(email))
		go func() {
			if err := s.mailer.SendInterviewInvite(email, fullName, jobRole, interviewURL); err != nil {
				log.Printf("[Interview] Failed to send invite for session %s: %v", session.SessionID, err)
			}
		}()
	}

	return session, nil
}

// SaveResults records the responses and scoring posted back by the
// interview service. Safe to call more than once for the same result.
func (s *InterviewService) SaveResults(ctx context.Context, req *model.InterviewResultsRequest) error {
	err := s.sessions.SaveResults(ctx, req.SessionID, req.Responses, req.Scoring, req.OverallScore)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

// Get retrieves an interview session
func (s *InterviewService) Get(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	session, err := s.sessions.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}
