package model

import (
	"encoding/json"
	"time"
)

// AssessmentSession is one externally-scored MCQ attempt, correlated to
// an application via its reference code. Sessions are never deleted;
// score stays nil until the external service reports completion.
type AssessmentSession struct {
	SessionID       string          `gorm:"primaryKey" json:"sessionId"`
	ApplicationID   string          `gorm:"index" json:"applicationId"`
	CandidateName   string          `gorm:"not null" json:"candidateName"`
	CandidateEmail  string          `gorm:"index;not null" json:"candidateEmail"`
	PositionApplied string          `json:"positionApplied"`
	CompanyApplied  string          `json:"companyApplied"`
	ReferenceCode   string          `gorm:"index;not null" json:"referenceCode"`
	TotalQuestions  int             `json:"totalQuestions"`
	Completed       bool            `json:"completed"`
	Score           *float64        `json:"score,omitempty"`
	DetailedResults json.RawMessage `json:"detailedResults,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"-"`
	CompletedAt     *time.Time      `json:"completedAt,omitempty"`
}

// AssessmentCompletedRequest is the inbound callback payload posted by
// the assessment service when a candidate finishes.
type AssessmentCompletedRequest struct {
	SessionID       string          `json:"session_id" validate:"required"`
	Score           float64         `json:"score" validate:"gte=0,lte=100"`
	DetailedResults json.RawMessage `json:"detailed_results,omitempty"`
}
