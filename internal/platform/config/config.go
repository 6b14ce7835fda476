// Package config loads process configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	UploadDir string

	Database  DatabaseConfig
	Redis     RedisConfig
	OCR       OCRConfig
	Face      FaceConfig
	Audit     AuditConfig
	RateLimit RateLimitConfig
}

// RateLimitConfig throttles the public submission endpoints per client IP.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// DatabaseConfig holds Postgres connection settings.
// An empty URL selects the in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxConns        int32
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings.
// An empty URL disables the recent-verification index.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RecentTTL    time.Duration
}

// OCRConfig holds text extraction settings.
type OCRConfig struct {
	DefaultModel     string
	TesseractPaths   []string
	VisionAPIKey     string
	VisionEndpoint   string
	RunTimeout       time.Duration
	PreprocessBinary string
}

// FaceConfig holds face comparison settings.
type FaceConfig struct {
	DefaultModel string
	PythonBinary string
	RunnerScript string
	RunTimeout   time.Duration
}

// AuditConfig holds audit trail settings.
// Empty brokers keep audit events in the local store only.
type AuditConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
	BufferSize   int
}

// FromEnv builds a Server config from environment variables so main stays lean.
// A .env file in the working directory is honored when present.
func FromEnv() Server {
	_ = godotenv.Load()

	addr := os.Getenv("VERIDOC_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		JWTIssuer:     envOr("JWT_ISSUER", "veridoc"),
		JWTAudience:   envOr("JWT_AUDIENCE", "veridoc-admin"),
		UploadDir:     uploadDir,
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxConns:        int32(envInt("DATABASE_MAX_CONNS", 10)),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			RecentTTL:    envDuration("REDIS_RECENT_TTL", 24*time.Hour),
		},
		OCR: OCRConfig{
			DefaultModel:     envOr("OCR_DEFAULT_MODEL", "tesseract"),
			TesseractPaths:   envList("TESSERACT_PATHS", []string{"tesseract", "/usr/bin/tesseract", "/usr/local/bin/tesseract", "/opt/homebrew/bin/tesseract"}),
			VisionAPIKey:     os.Getenv("GOOGLE_VISION_API_KEY"),
			VisionEndpoint:   envOr("GOOGLE_VISION_ENDPOINT", "https://vision.googleapis.com/v1/images:annotate"),
			RunTimeout:       envDuration("OCR_RUN_TIMEOUT", 30*time.Second),
			PreprocessBinary: os.Getenv("IMAGEMAGICK_BINARY"),
		},
		Face: FaceConfig{
			DefaultModel: envOr("FACE_DEFAULT_MODEL", "google-vision"),
			PythonBinary: envOr("FACE_PYTHON_BINARY", "python3"),
			RunnerScript: envOr("FACE_RUNNER_SCRIPT", "scripts/face_runner.py"),
			RunTimeout:   envDuration("FACE_RUN_TIMEOUT", 60*time.Second),
		},
		Audit: AuditConfig{
			KafkaBrokers: envList("AUDIT_KAFKA_BROKERS", nil),
			KafkaTopic:   envOr("AUDIT_KAFKA_TOPIC", "veridoc.audit"),
			BufferSize:   envInt("AUDIT_BUFFER_SIZE", 256),
		},
		RateLimit: RateLimitConfig{
			Requests: envInt("RATE_LIMIT_REQUESTS", 30),
			Window:   envDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
