package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	RateLimit  RateLimitConfig
	Resume     ResumeConfig
	Assessment AssessmentConfig
	Interview  InterviewConfig
	Pipeline   PipelineConfig
	SMTP       SMTPConfig
	Storage    StorageConfig
	Gateway    GatewayConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type DatabaseConfig struct {
	Driver          string // "postgres" or "sqlite"
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	ApplyPerHour  int
	UploadPerHour int
	JobsPerHour   int
	StatusPerMin  int
}

// ResumeConfig points at the resume scoring service.
type ResumeConfig struct {
	BaseURL string
	Timeout int // seconds
}

// AssessmentConfig points at the MCQ assessment service.
type AssessmentConfig struct {
	BaseURL     string
	Timeout     int // seconds
	FrontendURL string
}

// InterviewConfig points at the interview generation service.
type InterviewConfig struct {
	BaseURL string
	Timeout int // seconds
}

// PipelineConfig holds the stage-gate thresholds and poller bounds.
// Thresholds default to the product's hiring rules (30% resume match,
// 5% assessment score); the poller defaults cover the assessment's
// 20-minute validity window with margin.
type PipelineConfig struct {
	ResumeThreshold      float64
	AssessmentThreshold  float64
	PollMaxAttempts      int
	PollInterval         time.Duration
	NumJobQuestions      int
	NumSoftQuestions     int
	NumAptitudeQuestions int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type StorageConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("DATABASE_DSN")
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("SMTP_PASSWORD")
	readSecret("STORAGE_ACCESS_KEY_ID")
	readSecret("STORAGE_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = viper.BindEnv("database.dsn", "DATABASE_DSN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("resume.base_url", "RESUME_ANALYSIS_URL")
	_ = viper.BindEnv("resume.timeout", "RESUME_ANALYSIS_TIMEOUT")
	_ = viper.BindEnv("assessment.base_url", "MCQ_API_URL")
	_ = viper.BindEnv("assessment.timeout", "MCQ_API_TIMEOUT")
	_ = viper.BindEnv("assessment.frontend_url", "FRONTEND_URL")
	_ = viper.BindEnv("interview.base_url", "INTERVIEW_API_URL")
	_ = viper.BindEnv("interview.timeout", "INTERVIEW_API_TIMEOUT")
	_ = viper.BindEnv("pipeline.resume_threshold", "PIPELINE_RESUME_THRESHOLD")
	_ = viper.BindEnv("pipeline.assessment_threshold", "PIPELINE_ASSESSMENT_THRESHOLD")
	_ = viper.BindEnv("pipeline.poll_max_attempts", "PIPELINE_POLL_MAX_ATTEMPTS")
	_ = viper.BindEnv("pipeline.poll_interval", "PIPELINE_POLL_INTERVAL")
	_ = viper.BindEnv("smtp.host", "SMTP_HOST")
	_ = viper.BindEnv("smtp.port", "SMTP_PORT")
	_ = viper.BindEnv("smtp.username", "SMTP_USERNAME")
	_ = viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	_ = viper.BindEnv("smtp.from", "SMTP_FROM")
	_ = viper.BindEnv("storage.account_id", "STORAGE_ACCOUNT_ID")
	_ = viper.BindEnv("storage.access_key_id", "STORAGE_ACCESS_KEY_ID")
	_ = viper.BindEnv("storage.secret_access_key", "STORAGE_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("storage.bucket_name", "STORAGE_BUCKET_NAME")
	_ = viper.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.dsn", "host=localhost user=hireflow password=hireflow dbname=hireflow port=5432 sslmode=disable")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 50)
	viper.SetDefault("database.conn_max_lifetime", "1h")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.apply_per_hour", 20)
	viper.SetDefault("ratelimit.upload_per_hour", 50)
	viper.SetDefault("ratelimit.jobs_per_hour", 100)
	viper.SetDefault("ratelimit.status_per_min", 120)

	// Scoring service defaults
	viper.SetDefault("resume.base_url", "http://localhost:5000")
	viper.SetDefault("resume.timeout", 120)
	viper.SetDefault("assessment.base_url", "http://localhost:8001")
	viper.SetDefault("assessment.timeout", 60)
	viper.SetDefault("assessment.frontend_url", "http://localhost:5173")
	viper.SetDefault("interview.base_url", "http://localhost:5001")
	viper.SetDefault("interview.timeout", 60)

	// Pipeline defaults
	viper.SetDefault("pipeline.resume_threshold", 30.0)
	viper.SetDefault("pipeline.assessment_threshold", 5.0)
	viper.SetDefault("pipeline.poll_max_attempts", 30)
	viper.SetDefault("pipeline.poll_interval", "1m")
	viper.SetDefault("pipeline.num_job_questions", 5)
	viper.SetDefault("pipeline.num_soft_questions", 5)
	viper.SetDefault("pipeline.num_aptitude_questions", 5)

	// SMTP defaults
	viper.SetDefault("smtp.host", "")
	viper.SetDefault("smtp.port", 587)

	// Gateway defaults
	viper.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Database: DatabaseConfig{
			Driver:          viper.GetString("database.driver"),
			DSN:             viper.GetString("database.dsn"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			ConnMaxLifetime: viper.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			ApplyPerHour:  viper.GetInt("ratelimit.apply_per_hour"),
			UploadPerHour: viper.GetInt("ratelimit.upload_per_hour"),
			JobsPerHour:   viper.GetInt("ratelimit.jobs_per_hour"),
			StatusPerMin:  viper.GetInt("ratelimit.status_per_min"),
		},
		Resume: ResumeConfig{
			BaseURL: viper.GetString("resume.base_url"),
			Timeout: viper.GetInt("resume.timeout"),
		},
		Assessment: AssessmentConfig{
			BaseURL:     viper.GetString("assessment.base_url"),
			Timeout:     viper.GetInt("assessment.timeout"),
			FrontendURL: viper.GetString("assessment.frontend_url"),
		},
		Interview: InterviewConfig{
			BaseURL: viper.GetString("interview.base_url"),
			Timeout: viper.GetInt("interview.timeout"),
		},
		Pipeline: PipelineConfig{
			ResumeThreshold:      viper.GetFloat64("pipeline.resume_threshold"),
			AssessmentThreshold:  viper.GetFloat64("pipeline.assessment_threshold"),
			PollMaxAttempts:      viper.GetInt("pipeline.poll_max_attempts"),
			PollInterval:         viper.GetDuration("pipeline.poll_interval"),
			NumJobQuestions:      viper.GetInt("pipeline.num_job_questions"),
			NumSoftQuestions:     viper.GetInt("pipeline.num_soft_questions"),
			NumAptitudeQuestions: viper.GetInt("pipeline.num_aptitude_questions"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("smtp.host"),
			Port:     viper.GetInt("smtp.port"),
			Username: viper.GetString("smtp.username"),
			Password: viper.GetString("smtp.password"),
			From:     viper.GetString("smtp.from"),
		},
		Storage: StorageConfig{
			AccountID:       viper.GetString("storage.account_id"),
			AccessKeyID:     viper.GetString("storage.access_key_id"),
			SecretAccessKey: viper.GetString("storage.secret_access_key"),
			BucketName:      viper.GetString("storage.bucket_name"),
			PublicURL:       viper.GetString("storage.public_url"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}
