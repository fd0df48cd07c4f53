package model

import "time"

// Job is a job posting candidates apply to. The pipeline reads its
// description and title when calling the scoring services.
type Job struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	RecruiterID string    `gorm:"index" json:"recruiterId"`
	Title       string    `gorm:"not null" json:"title"`
	Company     string    `gorm:"not null" json:"company"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"-"`
}

// CreateJobRequest is the job posting creation payload.
type CreateJobRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Company     string `json:"company" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"required,min=10"`
	Location    string `json:"location" validate:"omitempty,max=200"`
}
