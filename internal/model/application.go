package model

import "time"

// ApplicationStatus is the reviewer-controlled overall status. It is
// independent of the pipeline's stage ledger.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusReviewed ApplicationStatus = "reviewed"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

var ValidApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending, ApplicationStatusReviewed,
	ApplicationStatusAccepted, ApplicationStatusRejected,
}

// Application represents one candidate's submission to one job posting.
// The resume URL is immutable after creation; the stage ledger lives in
// its own store keyed by the application id.
type Application struct {
	ID             string            `gorm:"primaryKey" json:"id"`
	JobID          string            `gorm:"index;not null" json:"jobId"`
	CandidateID    string            `gorm:"index;not null" json:"candidateId"`
	CandidateName  string            `json:"candidateName"`
	CandidateEmail string            `json:"candidateEmail"`
	ResumeURL      string            `gorm:"not null" json:"resumeUrl"`
	Status         ApplicationStatus `gorm:"default:pending" json:"status"`
	CreatedAt      time.Time         `json:"dateApplied"`
	UpdatedAt      time.Time         `json:"-"`
}

// ApplyRequest is the submit-application payload.
type ApplyRequest struct {
	JobID     string `json:"jobId" validate:"required"`
	ResumeURL string `json:"resumeUrl" validate:"required,url"`
}

// ApplicationStatusResponse is returned by the status-query endpoint:
// overall status plus the full ledger snapshot.
type ApplicationStatusResponse struct {
	ApplicationID string            `json:"applicationId"`
	Status        ApplicationStatus `json:"status"`
	Progress      []StageRecord     `json:"progressDetails"`
}

// ApplicationSummary enriches an application with job fields for listings.
type ApplicationSummary struct {
	Application
	JobTitle    string        `json:"jobTitle"`
	CompanyName string        `json:"companyName"`
	Progress    []StageRecord `json:"progressDetails,omitempty"`
}

// UpdateApplicationStatusRequest is the reviewer action payload.
type UpdateApplicationStatusRequest struct {
	Status ApplicationStatus `json:"status" validate:"required,oneof=pending reviewed accepted rejected"`
}
