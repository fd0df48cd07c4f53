package model

import "time"

// UploadResumeResponse describes a stored resume file.
type UploadResumeResponse struct {
	ID        string    `json:"id"`
	FileURL   string    `json:"fileUrl"`
	Size      int64     `json:"size,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
