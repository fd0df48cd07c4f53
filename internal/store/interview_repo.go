package store

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/hireflow/api/internal/model"
)

// InterviewRepository handles interview session persistence
type InterviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{db: db}
}

// Create inserts a new interview session
func (r *InterviewRepository) Create(ctx context.Context, session *model.InterviewSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetBySession retrieves an interview session by its external session id
func (r *InterviewRepository) GetBySession(ctx context.Context, sessionID string) (*model.InterviewSession, error) {
	var session model.InterviewSession
	if err := r.db.WithContext(ctx).First(&session, "session_id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// SaveResults stores the candidate's responses and scoring from the
// interview service callback. Reapplying the same terminal score is a
// no-op so the callback stays idempotent.
func (r *InterviewRepository) SaveResults(ctx context.Context, sessionID string, responses, scoring json.RawMessage, overallScore *float64) error {
	session, err := r.GetBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	if session.Status == model.InterviewStatusCompleted &&
		session.OverallScore != nil && overallScore != nil &&
		*session.OverallScore == *overallScore {
		return nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       model.InterviewStatusCompleted,
		"completed_at": &now,
	}
	if len(responses) > 0 {
		updates["responses"] = responses
	}
	if len(scoring) > 0 {
		updates["scoring"] = scoring
	}
	if overallScore != nil {
		updates["overall_score"] = *overallScore
	}

	return r.db.WithContext(ctx).
		Model(&model.InterviewSession{}).
		Where("session_id = ?", sessionID).
		Updates(updates).Error
}
