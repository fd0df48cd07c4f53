package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/hireflow/api/internal/client"
	"github.com/hireflow/api/internal/config"
	"github.com/hireflow/api/internal/handler"
	"github.com/hireflow/api/internal/mail"
	"github.com/hireflow/api/internal/middleware"
	"github.com/hireflow/api/internal/service"
	"github.com/hireflow/api/internal/store"
	"github.com/hireflow/api/internal/worker"
	ws "github.com/hireflow/api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := store.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := store.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection; fall back to in-memory progress tracking
	// for local development without Redis
	ctx := context.Background()
	var ledger store.Ledger
	redisUp := redisClient.Ping(ctx).Err() == nil
	if redisUp {
		ledger = store.NewRedisLedger(redisClient)
	} else {
		log.Println("Warning: Redis not available, using in-memory stage ledger")
		ledger = store.NewMemoryLedger()
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize external clients
	resumeClient := client.NewResumeClient(&cfg.Resume)
	assessmentClient := client.NewAssessmentClient(&cfg.Assessment)
	interviewClient := client.NewInterviewClient(&cfg.Interview)

	// Initialize storage client (optional - continues if not configured)
	var storageClient client.StorageClient
	if cfg.Storage.AccessKeyID != "" && cfg.Storage.SecretAccessKey != "" {
		r2Client, err := client.NewR2Client(&cfg.Storage)
		if err != nil {
			log.Printf("Warning: storage client not initialized: %v", err)
		} else {
			storageClient = r2Client
		}
	} else {
		log.Println("Info: object storage not configured, using mock storage")
	}

	// Initialize mailer
	mailer := mail.NewMailer(&cfg.SMTP)
	if !mailer.IsConfigured() {
		log.Println("Info: SMTP not configured, invitation emails disabled")
	}

	// Initialize repositories
	appRepo := store.NewApplicationRepository(db)
	jobRepo := store.NewJobRepository(db)
	assessmentRepo := store.NewAssessmentRepository(db)
	interviewRepo := store.NewInterviewRepository(db)

	// Initialize services
	jobService := service.NewJobService(jobRepo)
	applicationService := service.NewApplicationService(appRepo, jobRepo, ledger, asynqClient, cfg.Pipeline)
	assessmentService := service.NewAssessmentService(assessmentRepo, assessmentClient, mailer, cfg.Assessment, cfg.Pipeline)
	interviewService := service.NewInterviewService(interviewRepo, interviewClient, mailer, cfg.Interview)
	uploadService := service.NewUploadService(storageClient)

	// Initialize handlers
	jobHandler := handler.NewJobHandler(jobService, validate)
	applicationHandler := handler.NewApplicationHandler(applicationService, validate)
	assessmentHandler := handler.NewAssessmentHandler(assessmentService, validate)
	interviewHandler := handler.NewInterviewHandler(interviewService, validate)
	uploadHandler := handler.NewUploadHandler(uploadService, validate)

	// Initialize auth middleware
	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		// Behind the gateway: auth already verified, read X-User-* headers
		log.Println("Info: Gateway mode enabled — using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	} else {
		apiAuthMiddleware = middleware.NewAuthMiddleware(cfg.JWT.Secret).Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    10 * 1024 * 1024, // 10MB resumes
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"resume":     resumeClient.IsConfigured(),
				"assessment": assessmentClient.IsConfigured(),
				"interview":  interviewClient.IsConfigured(),
				"storage":    storageClient != nil,
				"smtp":       mailer.IsConfigured(),
				"redis":      redisUp,
			},
		})
	})

	// Inbound callbacks from the scoring services (no user auth; these
	// arrive from the assessment/interview services, not browsers)
	app.Post("/api/assessments/completed", assessmentHandler.Completed)
	app.Post("/api/interviews/results", interviewHandler.SaveResults)

	// API routes
	api := app.Group("/api", apiAuthMiddleware)

	// Job routes
	jobs := api.Group("/jobs")
	jobs.Post("/", rateLimiter.JobsLimit(cfg.RateLimit.JobsPerHour), jobHandler.Create)
	jobs.Get("/", jobHandler.List)
	jobs.Get("/:jobId", jobHandler.Get)
	jobs.Get("/:jobId/applications", applicationHandler.ByJob)

	// Application routes
	applications := api.Group("/applications")
	applications.Post("/", rateLimiter.ApplyLimit(cfg.RateLimit.ApplyPerHour), applicationHandler.Apply)
	applications.Get("/mine", applicationHandler.Mine)
	applications.Get("/:applicationId/status", rateLimiter.StatusLimit(cfg.RateLimit.StatusPerMin), applicationHandler.Status)
	applications.Patch("/:applicationId/status", applicationHandler.UpdateStatus)

	// Assessment / interview session lookups
	api.Get("/assessments/:sessionId", assessmentHandler.Status)
	api.Get("/interviews/:sessionId", interviewHandler.Get)

	// Upload routes
	upload := api.Group("/upload", rateLimiter.UploadLimit(cfg.RateLimit.UploadPerHour))
	upload.Post("/resume", uploadHandler.Resume)
	upload.Delete("/resume/:resumeId", uploadHandler.DeleteResume)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/applications/:applicationId", websocket.New(func(c *websocket.Conn) {
		applicationID := c.Params("applicationId")
		hub.HandleConnection(c, applicationID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, ledger, appRepo, jobRepo, assessmentRepo, resumeClient, assessmentService, interviewService, assessmentClient, hub)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(
	cfg *config.Config,
	ledger store.Ledger,
	appRepo *store.ApplicationRepository,
	jobRepo *store.JobRepository,
	assessmentRepo *store.AssessmentRepository,
	resumeClient *client.ResumeClient,
	assessmentService *service.AssessmentService,
	interviewService *service.InterviewService,
	assessmentClient *client.AssessmentClient,
	hub *ws.Hub,
) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"pipeline": 10,
			},
			LogLevel: asynqLogLevel,
		},
	)

	poller := worker.NewAssessmentPoller(assessmentRepo, assessmentClient, cfg.Pipeline.PollMaxAttempts, cfg.Pipeline.PollInterval)
	pipeline := worker.NewPipeline(appRepo, jobRepo, ledger, resumeClient, assessmentService, interviewService, poller, hub, cfg.Pipeline)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypePipeline, pipeline.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
