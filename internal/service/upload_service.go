package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/hireflow/api/internal/client"
	"github.com/hireflow/api/internal/model"
)

// UploadService handles resume uploads to object storage
type UploadService struct {
	storage client.StorageClient
}

// NewUploadService creates a new upload service
func NewUploadService(storage client.StorageClient) *UploadService {
	return &UploadService{storage: storage}
}

// UploadResume stores a candidate's resume PDF and returns its URL
func (s *UploadService) UploadResume(ctx context.Context, candidateID string, file io.Reader, fileSize int64) (*model.UploadResumeResponse, error) {
	resumeID := uuid.New().String()
	key := fmt.Sprintf("resumes/%s/%s.pdf", candidateID, resumeID)

	// Use mock response if storage is not configured
	if s.storage == nil {
		return s.uploadMock(resumeID, key), nil
	}

	fileURL, err := s.storage.Upload(ctx, key, file, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to upload resume: %w", err)
	}

	return &model.UploadResumeResponse{
		ID:        resumeID,
		FileURL:   fileURL,
		Size:      fileSize,
		CreatedAt: time.Now(),
	}, nil
}

// DeleteResume removes a candidate's resume from storage. The key is
// derived from the caller's identity, so a candidate can only delete
// their own objects.
func (s *UploadService) DeleteResume(ctx context.Context, candidateID, resumeID string) error {
	if s.storage == nil {
		return nil // Mock: no-op
	}

	key := fmt.Sprintf("resumes/%s/%s.pdf", candidateID, resumeID)
	return s.storage.Delete(ctx, key)
}

// Mock implementation for development/testing
func (s *UploadService) uploadMock(resumeID, key string) *model.UploadResumeResponse {
	return &model.UploadResumeResponse{
		ID:        resumeID,
		FileURL:   fmt.Sprintf("https://cdn.hireflow.dev/%s", key),
		CreatedAt: time.Now(),
	}
}
