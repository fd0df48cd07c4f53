package model

import (
	"encoding/json"
	"time"
)

// Interview lifecycle states
const (
	InterviewStatusPending   = "pending"
	InterviewStatusCompleted = "completed"
)

// InterviewSession is one externally-generated interview keyed by
// candidate email and job role. Responses and scoring arrive later via
// the save-results callback.
type InterviewSession struct {
	SessionID     string          `gorm:"primaryKey" json:"sessionId"`
	ApplicationID string          `gorm:"index" json:"applicationId"`
	FullName      string          `gorm:"not null" json:"fullName"`
	Email         string          `gorm:"index;not null" json:"email"`
	JobRole       string          `gorm:"not null" json:"jobRole"`
	Questions     json.RawMessage `json:"questions"`
	Responses     json.RawMessage `json:"responses,omitempty"`
	Status        string          `gorm:"default:pending" json:"status"`
	Scoring       json.RawMessage `json:"scoring,omitempty"`
	OverallScore  *float64        `json:"overallScore,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"-"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
}

// InterviewResultsRequest is the inbound save-results callback payload
// posted by the interview service.
type InterviewResultsRequest struct {
	SessionID    string          `json:"session_id" validate:"required"`
	Responses    json.RawMessage `json:"responses,omitempty"`
	Scoring      json.RawMessage `json:"scoring,omitempty"`
	OverallScore *float64        `json:"overall_score,omitempty" validate:"omitempty,gte=0,lte=100"`
}
