package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// RunnerConfig defines how external Ghostscript processes are executed.
type RunnerConfig struct {
	InvocationTimeout time.Duration
	Concurrency       int
	FailFast          bool
	FallbackRender    bool
	PageCounter       string // "pdfcpu" | "gs" | "fitz"
}

// MetricsConfig defines the optional Prometheus listener.
type MetricsConfig struct {
	Addr string // empty disables the listener
}

// StatusConfig defines optional Redis run-status publication.
type StatusConfig struct {
	RedisURL string // empty disables publication
}

// Config is the top-level ambient configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Runner  RunnerConfig
	Metrics MetricsConfig
	Status  StatusConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/gsraster.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_gsraster",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Runner = RunnerConfig{
		InvocationTimeout: parseDuration(getEnv("GS_TIMEOUT", "3m"), 3*time.Minute),
		Concurrency:       parseInt(getEnv("WORKER_CONCURRENCY", "1"), 1),
		FailFast:          parseBool(getEnv("FAIL_FAST", "0")),
		FallbackRender:    parseBool(getEnv("GS_FALLBACK_RENDER", "true")),
		PageCounter:       getEnv("PAGE_COUNT_ORACLE", "pdfcpu"),
	}

	cfg.Metrics = MetricsConfig{Addr: getEnv("METRICS_ADDR", "")}
	cfg.Status = StatusConfig{RedisURL: getEnv("REDIS_URL", "")}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
