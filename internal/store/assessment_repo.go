package store

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/hireflow/api/internal/model"
)

// AssessmentRepository handles MCQ assessment session persistence
type AssessmentRepository struct {
	db *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Create inserts a new assessment session
func (r *AssessmentRepository) Create(ctx context.Context, session *model.AssessmentSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// GetBySession retrieves an assessment session by its external session id
func (r *AssessmentRepository) GetBySession(ctx context.Context, sessionID string) (*model.AssessmentSession, error) {
	var session model.AssessmentSession
	if err := r.db.WithContext(ctx).First(&session, "session_id = ?", sessionID).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// LatestByEmail returns the candidate's most recent assessment session,
// optionally narrowed to one reference code. Returns nil without error
// when no session exists yet.
func (r *AssessmentRepository) LatestByEmail(ctx context.Context, email, referenceCode string) (*model.AssessmentSession, error) {
	query := r.db.WithContext(ctx).Where("candidate_email = ?", email)
	if referenceCode != "" {
		query = query.Where("reference_code = ?", referenceCode)
	}

	var session model.AssessmentSession
	err := query.Order("updated_at DESC").First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// MarkCompleted records a session's terminal score. Reapplying the same
// terminal score is a no-op so completion callbacks stay idempotent.
func (r *AssessmentRepository) MarkCompleted(ctx context.Context, sessionID string, score float64, details json.RawMessage) error {
	session, err := r.GetBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	if session.Completed && session.Score != nil && *session.Score == score {
		return nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"completed":    true,
		"score":        score,
		"completed_at": &now,
	}
	if len(details) > 0 {
		updates["detailed_results"] = details
	}

	return r.db.WithContext(ctx).
		Model(&model.AssessmentSession{}).
		Where("session_id = ?", sessionID).
		Updates(updates).Error
}
