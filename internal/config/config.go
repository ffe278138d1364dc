package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// upstream conference backend
	APIBaseURL   string
	ServiceToken string

	// shared HS256 secret used by the backend to sign access tokens
	JWTSecret string

	DBURL     string
	RedisAddr string
	RedisPass string
	RedisDB   int

	DraftTTL time.Duration

	AllowedOrigins []string
	PublicBaseURL  string

	OTLPEndpoint string

	SMTPHost   string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	SMTPSender string

	SupportEmail string

	ReconcileGrace       time.Duration
	ReconcileMaxAttempts int
	ReconcilePoll        time.Duration
	WorkerHealthPort     int
}

// Load reads a .env file when present, then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:                  getEnv("APP_ENV", "dev"),
		Port:                 getEnvInt("PORT", 8080),
		APIBaseURL:           strings.TrimRight(getEnv("API_BASE_URL", "http://127.0.0.1:5000"), "/"),
		ServiceToken:         getEnv("SERVICE_TOKEN", ""),
		JWTSecret:            getEnv("JWT_SECRET", "change-me-jwt-secret"),
		DBURL:                getEnv("DATABASE_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPass:            getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		DraftTTL:             getEnvDuration("DRAFT_TTL", 2*time.Hour),
		AllowedOrigins:       getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		PublicBaseURL:        strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		OTLPEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             getEnvInt("SMTP_PORT", 465),
		SMTPUser:             getEnv("SMTP_USER", ""),
		SMTPPass:             getEnv("SMTP_PASS", ""),
		SMTPSender:           getEnv("SMTP_SENDER", ""),
		SupportEmail:         getEnv("SUPPORT_EMAIL", ""),
		ReconcileGrace:       getEnvDuration("RECONCILE_GRACE", 10*time.Minute),
		ReconcileMaxAttempts: getEnvInt("RECONCILE_MAX_ATTEMPTS", 6),
		ReconcilePoll:        getEnvDuration("RECONCILE_POLL_INTERVAL", 5*time.Second),
		WorkerHealthPort:     getEnvInt("WORKER_HEALTH_PORT", 8081),
	}
}

func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPSender != ""
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}
		return d
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
