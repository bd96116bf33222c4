// Package config builds runtime configuration from the environment so main
// stays lean. Every value has a development default; production deployments
// override via env.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the top-level runtime configuration.
type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	Kafka    Kafka
	Provider Provider
	Risk     Risk
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Database configures the PostgreSQL connection. An empty URL switches the
// service to in-memory stores (local development, unit tests).
type Database struct {
	URL string
}

// Redis configures the shared TTL store used for provider tokens and
// single-use session exchange tokens. Empty URL disables Redis and falls back
// to process-local stores.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the best-effort audit publisher. No brokers disables it.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// Provider configures the optional verification-provider API client.
type Provider struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

// Risk carries threshold overrides for the classifier. Zero values mean
// "use the default"; see internal/risk.DefaultThresholds.
type Risk struct {
	ScreenRejectScore    float64
	ScreenWarnScore      float64
	PrintRejectScore     float64
	PrintWarnScore       float64
	TamperingRejectScore float64
	TamperingWarnScore   float64
	BiometricMinLevel    int
}

// FromEnv builds the full configuration from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envString("VERIFLOW_ADDR", ":8080"),
			ShutdownTimeout: envDuration("VERIFLOW_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: Database{
			URL: os.Getenv("DATABASE_URL"),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envString("KAFKA_AUDIT_TOPIC", "veriflow.audit"),
		},
		Provider: Provider{
			BaseURL:      os.Getenv("PROVIDER_BASE_URL"),
			ClientID:     os.Getenv("PROVIDER_CLIENT_ID"),
			ClientSecret: os.Getenv("PROVIDER_CLIENT_SECRET"),
			Timeout:      envDuration("PROVIDER_TIMEOUT", 10*time.Second),
		},
		Risk: Risk{
			ScreenRejectScore:    envFloat("RISK_SCREEN_REJECT_SCORE", 0),
			ScreenWarnScore:      envFloat("RISK_SCREEN_WARN_SCORE", 0),
			PrintRejectScore:     envFloat("RISK_PRINT_REJECT_SCORE", 0),
			PrintWarnScore:       envFloat("RISK_PRINT_WARN_SCORE", 0),
			TamperingRejectScore: envFloat("RISK_TAMPERING_REJECT_SCORE", 0),
			TamperingWarnScore:   envFloat("RISK_TAMPERING_WARN_SCORE", 0),
			BiometricMinLevel:    envInt("RISK_BIOMETRIC_MIN_LEVEL", 0),
		},
	}
}

func envString(key, fallback string) string {
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
