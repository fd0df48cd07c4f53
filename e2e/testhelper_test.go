package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/hireflow/api/internal/auth"
	"github.com/hireflow/api/internal/config"
	"github.com/hireflow/api/internal/handler"
	"github.com/hireflow/api/internal/middleware"
	"github.com/hireflow/api/internal/service"
	"github.com/hireflow/api/internal/store"
)

const testJWTSecret = "test-secret-for-e2e"

// testApp holds all components needed for testing
type testApp struct {
	app  *fiber.App
	jobs *store.JobRepository
}

// setupApp creates a Fiber app identical to main.go but with
// unconfigured external clients, an in-memory database, and an
// in-memory stage ledger. Requires a local Redis for asynq enqueueing;
// skips otherwise.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	// Redis (localhost — skip the suite when not running)
	redisClient := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // use DB 15 for tests to avoid collision
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		t.Skipf("skipping: Redis not available at localhost:6379: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	// Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: "localhost:6379",
		DB:   15,
	})
	t.Cleanup(func() { asynqClient.Close() })

	// In-memory database
	db, err := store.InitDB(&config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             ":memory:",
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	validate := validator.New()
	ledger := store.NewMemoryLedger()

	// Repositories
	appRepo := store.NewApplicationRepository(db)
	jobRepo := store.NewJobRepository(db)
	assessmentRepo := store.NewAssessmentRepository(db)
	interviewRepo := store.NewInterviewRepository(db)

	// Services — external clients left unconfigured so mock fallbacks apply
	pipelineCfg := config.PipelineConfig{
		ResumeThreshold:     30,
		AssessmentThreshold: 5,
		PollMaxAttempts:     3,
		PollInterval:        10 * time.Millisecond,
	}
	jobService := service.NewJobService(jobRepo)
	applicationService := service.NewApplicationService(appRepo, jobRepo, ledger, asynqClient, pipelineCfg)
	assessmentService := service.NewAssessmentService(assessmentRepo, nil, nil, config.AssessmentConfig{}, pipelineCfg)
	interviewService := service.NewInterviewService(interviewRepo, nil, nil, config.InterviewConfig{})
	uploadService := service.NewUploadService(nil) // nil triggers mock storage

	// Handlers
	jobHandler := handler.NewJobHandler(jobService, validate)
	applicationHandler := handler.NewApplicationHandler(applicationService, validate)
	assessmentHandler := handler.NewAssessmentHandler(assessmentService, validate)
	interviewHandler := handler.NewInterviewHandler(interviewService, validate)
	uploadHandler := handler.NewUploadHandler(uploadService, validate)

	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
	})

	// Base routes
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"timestamp": 1234567890})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"resume":     false,
				"assessment": false,
				"interview":  false,
				"storage":    false,
				"smtp":       false,
				"redis":      true,
			},
		})
	})

	// Service callbacks (unauthenticated)
	app.Post("/api/assessments/completed", assessmentHandler.Completed)
	app.Post("/api/interviews/results", interviewHandler.SaveResults)

	// API routes (authenticated); very high rate limits so tests don't get blocked
	api := app.Group("/api", authMiddleware.Authenticate())

	jobs := api.Group("/jobs")
	jobs.Post("/", rateLimiter.JobsLimit(10000), jobHandler.Create)
	jobs.Get("/", jobHandler.List)
	jobs.Get("/:jobId", jobHandler.Get)
	jobs.Get("/:jobId/applications", applicationHandler.ByJob)

	applications := api.Group("/applications")
	applications.Post("/", rateLimiter.ApplyLimit(10000), applicationHandler.Apply)
	applications.Get("/mine", applicationHandler.Mine)
	applications.Get("/:applicationId/status", rateLimiter.StatusLimit(10000), applicationHandler.Status)
	applications.Patch("/:applicationId/status", applicationHandler.UpdateStatus)

	api.Get("/assessments/:sessionId", assessmentHandler.Status)
	api.Get("/interviews/:sessionId", interviewHandler.Get)

	upload := api.Group("/upload", rateLimiter.UploadLimit(10000))
	upload.Post("/resume", uploadHandler.Resume)
	upload.Delete("/resume/:resumeId", uploadHandler.DeleteResume)

	return &testApp{app: app, jobs: jobRepo}
}

// generateToken creates an HMAC JWT token for test requests.
func generateToken(t *testing.T, userID, email, name string) string {
	t.Helper()
	claims := auth.UserClaims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "hireflow-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}
	return signed
}

// doRequest is a helper to perform HTTP requests against the test app.
func doRequest(app *fiber.App, method, path string, body string, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}

	req, err := http.NewRequest(method, path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return app.Test(req, -1)
}

// doAuthRequest performs an authenticated request as a default test user.
func doAuthRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, error) {
	t.Helper()
	token := generateToken(t, "test-user-123", "test@example.com", "Test User")
	return doRequest(app, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

// readBody reads and returns the response body as a string.
func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(b)
}

// parseJSON parses response body into a map.
func parseJSON(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body := readBody(t, resp)
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, body)
	}
	return result
}

// assertStatus checks the HTTP status code.
func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}
