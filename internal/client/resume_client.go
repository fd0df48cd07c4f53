package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/hireflow/api/internal/config"
)

// ResumeScorer defines the contract with the resume analysis service
type ResumeScorer interface {
	AnalyzeResume(ctx context.Context, req *AnalyzeResumeRequest) (*AnalyzeResumeResponse, error)
	IsConfigured() bool
}

// ResumeClient implements ResumeScorer for the resume analysis service
type ResumeClient struct {
	httpClient *http.Client
	baseURL    string
}

// AnalyzeResumeRequest carries the resume bytes and the job context the
// service scores against
type AnalyzeResumeRequest struct {
	Resume         []byte
	Filename       string
	JobDescription string
	JobRole        string
}

// ResumeReport is the scored report section of the analysis response
type ResumeReport struct {
	PercentageScore float64 `json:"percentage_score"`
	Summary         string  `json:"summary,omitempty"`
}

// AnalyzeResumeResponse represents the full analysis response
type AnalyzeResumeResponse struct {
	Report ResumeReport    `json:"report"`
	Scores json.RawMessage `json:"scores,omitempty"`
}

// NewResumeClient creates a new resume analysis client
func NewResumeClient(cfg *config.ResumeConfig) *ResumeClient {
	return &ResumeClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL: cfg.BaseURL,
	}
}

// AnalyzeResume scores a resume against a job description and role.
// The resume is sent as a multipart file part named "resume".
func (c *ResumeClient) AnalyzeResume(ctx context.Context, req *AnalyzeResumeRequest) (*AnalyzeResumeResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	filename := req.Filename
	if filename == "" {
		filename = "resume.pdf"
	}

	part, err := writer.CreateFormFile("resume", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(req.Resume); err != nil {
		return nil, fmt.Errorf("failed to write resume part: %w", err)
	}
	if err := writer.WriteField("job_description", req.JobDescription); err != nil {
		return nil, fmt.Errorf("failed to write job_description field: %w", err)
	}
	if err := writer.WriteField("job_role", req.JobRole); err != nil {
		return nil, fmt.Errorf("failed to write job_role field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze-resume", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	log.Printf("[Resume API] → POST %s (role=%s, %d bytes)", httpReq.URL.String(), req.JobRole, len(req.Resume))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("[Resume API] ✗ request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrServiceUnavailable, err)
	}

	log.Printf("[Resume API] ← %d POST %s", resp.StatusCode, httpReq.URL.String())

	switch {
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: resume analysis rejected input (status %d): %s", ErrInvalidInput, resp.StatusCode, string(respBody))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: resume analysis error (status %d): %s", ErrServiceUnavailable, resp.StatusCode, string(respBody))
	}

	var result AnalyzeResumeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %v", ErrServiceUnavailable, err)
	}

	return &result, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *ResumeClient) IsConfigured() bool {
	return c.baseURL != ""
}
