package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// LLM backend (any OpenAI-compatible endpoint)
	LLMAPIKey            string
	LLMBaseURL           string
	LLMModel             string
	LLMRequestsPerMinute int
	LLMMaxAttempts       int
	LLMRequestTimeout    time.Duration

	// Segmentation
	MaxProposalAttempts int
	FallbackParts       int

	// Chunking
	MaxWordsPerChunk int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("BOOKDIGEST_API_KEY"),

		LLMAPIKey:            os.Getenv("LLM_API_KEY"),
		LLMBaseURL:           os.Getenv("LLM_BASE_URL"),
		LLMModel:             envOr("LLM_MODEL", "gpt-4o-mini"),
		LLMRequestsPerMinute: envInt("LLM_REQUESTS_PER_MINUTE", 30),
		LLMMaxAttempts:       envInt("LLM_MAX_ATTEMPTS", 5),
		LLMRequestTimeout:    envDuration("LLM_REQUEST_TIMEOUT", 120*time.Second),

		MaxProposalAttempts: envInt("MAX_PROPOSAL_ATTEMPTS", 3),
		FallbackParts:       envInt("FALLBACK_PARTS", 10),

		MaxWordsPerChunk: envInt("MAX_WORDS_PER_CHUNK", 7000),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 20),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL: envDuration("JOB_TTL", 24*time.Hour),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.LLMRequestsPerMinute <= 0 {
		cfg.LLMRequestsPerMinute = 30
	}
	if cfg.LLMMaxAttempts <= 0 {
		cfg.LLMMaxAttempts = 5
	}
	if cfg.MaxProposalAttempts <= 0 {
		cfg.MaxProposalAttempts = 3
	}
	if cfg.FallbackParts <= 0 {
		cfg.FallbackParts = 10
	}
	if cfg.MaxWordsPerChunk <= 0 {
		cfg.MaxWordsPerChunk = 7000
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 20
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 24 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("BOOKDIGEST_API_KEY is required")
	}
	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	return nil
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

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
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
