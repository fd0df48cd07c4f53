package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hireflow/api/internal/config"
)

// InterviewProvider defines the contract with the interview generation service
type InterviewProvider interface {
	StartInterview(ctx context.Context, req *StartInterviewRequest) (*StartInterviewResponse, error)
	IsConfigured() bool
}

// InterviewClient implements InterviewProvider for the interview service
type InterviewClient struct {
	httpClient *http.Client
	baseURL    string
}

// StartInterviewRequest asks the service to generate an interview for a role
type StartInterviewRequest struct {
	JobRole string `json:"job_role"`
}

// StartInterviewResponse carries the generated session and question set
type StartInterviewResponse struct {
	SessionID string          `json:"session_id"`
	Questions json.RawMessage `json:"questions"`
}

// NewInterviewClient creates a new interview service client
func NewInterviewClient(cfg *config.InterviewConfig) *InterviewClient {
	return &InterviewClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL: cfg.BaseURL,
	}
}

// StartInterview generates an interview question set for a job role
func (c *InterviewClient) StartInterview(ctx context.Context, req *StartInterviewRequest) (*StartInterviewResponse, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/start_interview", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Printf("[Interview API] → POST %s (role=%s)", httpReq.URL.String(), req.JobRole)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Printf("[Interview API] ✗ request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrServiceUnavailable, err)
	}

	log.Printf("[Interview API] ← %d POST %s", resp.StatusCode, httpReq.URL.String())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: interview service error (status %d): %s", ErrServiceUnavailable, resp.StatusCode, string(respBody))
	}

	var result StartInterviewResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %v", ErrServiceUnavailable, err)
	}
	if result.SessionID == "" || len(result.Questions) == 0 {
		return nil, fmt.Errorf("%w: interview service returned no questions", ErrServiceUnavailable)
	}

	return &result, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *InterviewClient) IsConfigured() bool {
	return c.baseURL != ""
}
