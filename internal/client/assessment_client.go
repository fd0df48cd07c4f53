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

// AssessmentProvider defines the contract with the MCQ assessment service
type AssessmentProvider interface {
	StartAssessment(ctx context.Context, req *StartAssessmentRequest) (*StartAssessmentResponse, error)
	FetchResult(ctx context.Context, sessionID string) (*AssessmentResult, error)
	IsConfigured() bool
}

// AssessmentClient implements AssessmentProvider for the MCQ service
type AssessmentClient struct {
	httpClient *http.Client
	baseURL    string
}

// StartAssessmentRequest is the payload for starting an interactive assessment
type StartAssessmentRequest struct {
	FullName             string `json:"full_name"`
	PositionApplied      string `json:"position_applied"`
	CompanyApplied       string `json:"company_applied"`
	ReferenceCode        string `json:"reference_code"`
	JobDescription       string `json:"job_description"`
	NumJobQuestions      int    `json:"num_job_questions"`
	NumSoftQuestions     int    `json:"num_soft_questions"`
	NumAptitudeQuestions int    `json:"num_aptitude_questions"`
}

// StartAssessmentResponse identifies the created assessment session
type StartAssessmentResponse struct {
	SessionID      string `json:"session_id"`
	TotalQuestions int    `json:"total_questions"`
}

// AssessmentScore is the score section of a results response
type AssessmentScore struct {
	Percentage float64 `json:"percentage"`
}

// AssessmentResult is a session's result; Score stays nil until the
// candidate finishes the assessment
type AssessmentResult struct {
	Completed bool             `json:"completed"`
	Score     *AssessmentScore `json:"score,omitempty"`
}

// NewAssessmentClient creates a new MCQ assessment client
func NewAssessmentClient(cfg *config.AssessmentConfig) *AssessmentClient {
	return &AssessmentClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL: cfg.BaseURL,
	}
}

// StartAssessment asks the MCQ service to generate and open a session
func (c *AssessmentClient) StartAssessment(ctx context.Context, req *StartAssessmentRequest) (*StartAssessmentResponse, error) {
	var result StartAssessmentResponse
	if err := c.post(ctx, "/start-interactive-assessment", req, &result); err != nil {
		return nil, err
	}
	if result.SessionID == "" {
		return nil, fmt.Errorf("%w: assessment service returned no session id", ErrServiceUnavailable)
	}
	return &result, nil
}

// FetchResult retrieves a session's result; ErrNotFound if the service
// does not know the session
func (c *AssessmentClient) FetchResult(ctx context.Context, sessionID string) (*AssessmentResult, error) {
	endpoint := fmt.Sprintf("/results/%s", sessionID)
	var result AssessmentResult
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	// Some deployments omit the completed flag and signal completion by
	// the presence of a score.
	if result.Score != nil {
		result.Completed = true
	}
	return &result, nil
}

// post sends a POST request with JSON body
func (c *AssessmentClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doRequest(req, result)
}

// get sends a GET request and parses JSON response
func (c *AssessmentClient) get(ctx context.Context, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.doRequest(req, result)
}

// doRequest executes an HTTP request and parses the response
func (c *AssessmentClient) doRequest(req *http.Request, result interface{}) error {
	log.Printf("[MCQ API] → %s %s", req.Method, req.URL.String())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[MCQ API] ✗ %s %s — request failed: %v", req.Method, req.URL.String(), err)
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrServiceUnavailable, err)
	}

	log.Printf("[MCQ API] ← %d %s %s", resp.StatusCode, req.Method, req.URL.String())

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, req.URL.Path)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("%w: MCQ service error (status %d): %s", ErrServiceUnavailable, resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("%w: failed to unmarshal response: %v", ErrServiceUnavailable, err)
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *AssessmentClient) IsConfigured() bool {
	return c.baseURL != ""
}
