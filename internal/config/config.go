package config

import (
	"os"
	"strconv"
)

type Config struct {
	APIPort  string
	LogLevel string

	BackendBaseURL        string
	BackendTimeoutSeconds int

	StagingPath    string
	MaxUploadBytes int

	NATSEnabled bool
	NATSURL     string
	NATSSubject string

	APIRateLimitRPS       int
	APIRateLimitBurst     int
	APIMaxConcurrency     int
	APIBackpressureWaitMS int

	BreakerEnabled          bool
	BreakerMinRequests      int
	BreakerFailureRatio     float64
	BreakerOpenTimeoutSecs  int
	BreakerHalfOpenMaxCalls int

	MetricsPort string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		BackendBaseURL:        mustEnv("BACKEND_BASE_URL", "http://localhost:3000/api"),
		BackendTimeoutSeconds: mustEnvInt("BACKEND_TIMEOUT_SECONDS", 60),

		StagingPath:    mustEnv("STAGING_PATH", "./data/staging"),
		MaxUploadBytes: mustEnvInt("MAX_UPLOAD_BYTES", 10<<20),

		NATSEnabled: mustEnvBool("NATS_ENABLED", false),
		NATSURL:     mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubject: mustEnv("NATS_SUBJECT", "documents.lifecycle"),

		APIRateLimitRPS:       mustEnvInt("API_RATE_LIMIT_RPS", 50),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 100),
		APIMaxConcurrency:     mustEnvInt("API_MAX_CONCURRENCY", 64),
		APIBackpressureWaitMS: mustEnvInt("API_BACKPRESSURE_WAIT_MS", 200),

		BreakerEnabled:          mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:      mustEnvInt("BREAKER_MIN_REQUESTS", 10),
		BreakerFailureRatio:     mustEnvFloat("BREAKER_FAILURE_RATIO", 0.5),
		BreakerOpenTimeoutSecs:  mustEnvInt("BREAKER_OPEN_TIMEOUT_SECONDS", 30),
		BreakerHalfOpenMaxCalls: mustEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", 2),

		MetricsPort: mustEnv("METRICS_PORT", "9090"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
