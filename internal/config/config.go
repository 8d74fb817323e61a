package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Generation provider (OpenAI-compatible chat completions API).
	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string

	// Embedding provider.
	EmbeddingBaseURL    string
	EmbeddingModelName  string
	EmbeddingVectorSize int

	// Knowledge store.
	DBPath           string
	QdrantURL        string
	QdrantCollection string

	// Retrieval pipeline tuning.
	VectorWeight     float64
	KeywordWeight    float64
	SearchLimit      int
	DedupThreshold   float64
	MaxContextTokens int

	// Generator retry policy.
	GenMaxRetries     int
	GenTimeout        time.Duration
	GenInitialBackoff time.Duration
	GenMaxBackoff     time.Duration

	// Bias detection.
	BiasThreshold float64
	BiasMinItems  int

	APIPort   string
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates required fields.
// If a .env file exists in the current directory or project root, it will be loaded
// automatically. Environment variables already set take precedence over .env values.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	// Check current directory first, then walk up to find project root (where go.mod is)
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ { // Limit search depth
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break // Reached filesystem root
			}
			dir = parent
		}
	}

	cfg := &Config{
		LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName:       getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:          getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:8081"),
		EmbeddingModelName: getEnv("EMBEDDING_MODEL_NAME", "granite-embedding-278m-multilingual"),
		DBPath:             getEnv("DB_PATH", "./data/careerpath-ai.db"),
		QdrantURL:          getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "knowledge"),
		APIPort:            getEnv("API_PORT", "9000"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
	}

	// EMBEDDING_VECTOR_SIZE must match the output size of the embeddings model.
	// If the size changes, the Qdrant collection must be recreated.
	vectorSizeStr := getEnv("EMBEDDING_VECTOR_SIZE", "")
	if vectorSizeStr == "" {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE is required")
	}
	vectorSize, err := strconv.Atoi(vectorSizeStr)
	if err != nil {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be a valid integer: %w", err)
	}
	if vectorSize <= 0 {
		return nil, fmt.Errorf("EMBEDDING_VECTOR_SIZE must be greater than 0")
	}
	cfg.EmbeddingVectorSize = vectorSize

	if cfg.VectorWeight, err = getEnvFloat("HYBRID_VECTOR_WEIGHT", 0.7); err != nil {
		return nil, err
	}
	if cfg.KeywordWeight, err = getEnvFloat("HYBRID_KEYWORD_WEIGHT", 0.3); err != nil {
		return nil, err
	}
	if cfg.VectorWeight < 0 || cfg.KeywordWeight < 0 {
		return nil, fmt.Errorf("hybrid search weights must not be negative")
	}
	if cfg.VectorWeight+cfg.KeywordWeight == 0 {
		return nil, fmt.Errorf("at least one hybrid search weight must be positive")
	}

	if cfg.SearchLimit, err = getEnvInt("SEARCH_LIMIT", 50); err != nil {
		return nil, err
	}
	if cfg.SearchLimit <= 0 {
		return nil, fmt.Errorf("SEARCH_LIMIT must be greater than 0")
	}

	if cfg.DedupThreshold, err = getEnvFloat("DEDUP_THRESHOLD", 0.9); err != nil {
		return nil, err
	}
	if cfg.DedupThreshold <= 0 || cfg.DedupThreshold > 1 {
		return nil, fmt.Errorf("DEDUP_THRESHOLD must be in (0, 1]")
	}

	if cfg.MaxContextTokens, err = getEnvInt("MAX_CONTEXT_TOKENS", 3000); err != nil {
		return nil, err
	}
	if cfg.MaxContextTokens <= 0 {
		return nil, fmt.Errorf("MAX_CONTEXT_TOKENS must be greater than 0")
	}

	if cfg.GenMaxRetries, err = getEnvInt("GEN_MAX_RETRIES", 3); err != nil {
		return nil, err
	}
	if cfg.GenMaxRetries < 0 {
		return nil, fmt.Errorf("GEN_MAX_RETRIES must not be negative")
	}

	genTimeoutMs, err := getEnvInt("GEN_TIMEOUT_MS", 30000)
	if err != nil {
		return nil, err
	}
	if genTimeoutMs <= 0 {
		return nil, fmt.Errorf("GEN_TIMEOUT_MS must be greater than 0")
	}
	cfg.GenTimeout = time.Duration(genTimeoutMs) * time.Millisecond

	initialBackoffMs, err := getEnvInt("GEN_INITIAL_BACKOFF_MS", 500)
	if err != nil {
		return nil, err
	}
	maxBackoffMs, err := getEnvInt("GEN_MAX_BACKOFF_MS", 10000)
	if err != nil {
		return nil, err
	}
	if initialBackoffMs < 0 || maxBackoffMs < initialBackoffMs {
		return nil, fmt.Errorf("GEN_MAX_BACKOFF_MS must be >= GEN_INITIAL_BACKOFF_MS >= 0")
	}
	cfg.GenInitialBackoff = time.Duration(initialBackoffMs) * time.Millisecond
	cfg.GenMaxBackoff = time.Duration(maxBackoffMs) * time.Millisecond

	if cfg.BiasThreshold, err = getEnvFloat("BIAS_THRESHOLD", 0.6); err != nil {
		return nil, err
	}
	if cfg.BiasThreshold <= 0 || cfg.BiasThreshold >= 1 {
		return nil, fmt.Errorf("BIAS_THRESHOLD must be in (0, 1)")
	}

	if cfg.BiasMinItems, err = getEnvInt("BIAS_MIN_ITEMS", 3); err != nil {
		return nil, err
	}
	if cfg.BiasMinItems < 1 {
		return nil, fmt.Errorf("BIAS_MIN_ITEMS must be at least 1")
	}

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	// Create the data directory if it doesn't exist (for the DB file)
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return parsed, nil
}

// getEnvFloat gets a float environment variable or returns a default value.
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid number: %w", key, err)
	}
	return parsed, nil
}

// parseLogLevel converts a log level string to slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q (expected debug, info, warn or error)", level)
	}
}
