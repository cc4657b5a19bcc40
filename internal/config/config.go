package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"portfolio-rag/internal/llm"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendQdrant = "qdrant"
)

// MaxTopK is the largest accepted RAG_TOP_K.
const MaxTopK = 10

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	LogLevel  string
	LogFormat string

	DBPath    string
	CorpusDir string

	StoreBackend     string
	QdrantURL        string
	QdrantCollection string
	EmbeddingDim     int

	LLMProvider    string
	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMTemperature float32

	EmbeddingProvider string
	EmbeddingAPIKey   string
	EmbeddingBaseURL  string
	EmbeddingModel    string

	RAGTopK        int
	RAGTokenBudget int

	IntentRerankEnabled bool
	TuningPath          string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// A .env file in the working directory or one of its parents is loaded first;
// variables already set in the environment take precedence.
func Load() (*Config, error) {
	loadDotEnv()

	cfg := &Config{
		APIPort:           getEnv("API_PORT", "9000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		DBPath:            getEnv("DB_PATH", "./data/portfolio-rag.db"),
		CorpusDir:         getEnv("CORPUS_DIR", "./data/rag"),
		StoreBackend:      strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		QdrantURL:         getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:  getEnv("QDRANT_COLLECTION", "passages"),
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMAPIKey:         getEnv("LLM_API_KEY", ""),
		LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		LLMModel:          getEnv("LLM_MODEL", "gpt-4o-mini"),
		EmbeddingProvider: strings.ToLower(getEnv("EMBEDDING_PROVIDER", "openai")),
		EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		TuningPath:        getEnv("TUNING_PATH", ""),
	}
	cfg.EmbeddingAPIKey = getEnv("EMBEDDING_API_KEY", cfg.LLMAPIKey)

	var err error
	if cfg.EmbeddingDim, err = getInt("EMBEDDING_DIM", 1536); err != nil {
		return nil, err
	}
	if cfg.RAGTopK, err = getInt("RAG_TOP_K", 5); err != nil {
		return nil, err
	}
	if cfg.RAGTokenBudget, err = getInt("RAG_TOKEN_BUDGET", 2200); err != nil {
		return nil, err
	}
	temperature, err := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.3"), 32)
	if err != nil {
		return nil, fmt.Errorf("LLM_TEMPERATURE must be a number: %w", err)
	}
	cfg.LLMTemperature = float32(temperature)
	if cfg.IntentRerankEnabled, err = strconv.ParseBool(getEnv("INTENT_RERANK_ENABLED", "true")); err != nil {
		return nil, fmt.Errorf("INTENT_RERANK_ENABLED must be a boolean: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges and provider requirements.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case BackendMemory, BackendQdrant:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendQdrant, c.StoreBackend))
	}
	if c.EmbeddingDim <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIM must be greater than 0"))
	}
	if c.RAGTopK < 1 || c.RAGTopK > MaxTopK {
		errs = append(errs, fmt.Errorf("RAG_TOP_K must be between 1 and %d", MaxTopK))
	}
	if c.RAGTokenBudget <= 0 {
		errs = append(errs, errors.New("RAG_TOKEN_BUDGET must be greater than 0"))
	}
	if c.LLMTemperature < 0 || c.LLMTemperature > 2 {
		errs = append(errs, errors.New("LLM_TEMPERATURE must be between 0 and 2"))
	}

	switch c.LLMProvider {
	case "openai", "anthropic", "gemini":
		if c.LLMAPIKey == "" {
			errs = append(errs, fmt.Errorf("LLM_API_KEY is required for provider %s", c.LLMProvider))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("%w: LLM_PROVIDER=%s", llm.ErrUnknownProvider, c.LLMProvider))
	}

	switch c.EmbeddingProvider {
	case "openai", "gemini":
		if c.EmbeddingAPIKey == "" {
			errs = append(errs, fmt.Errorf("EMBEDDING_API_KEY is required for provider %s", c.EmbeddingProvider))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("%w: EMBEDDING_PROVIDER=%s", llm.ErrUnknownProvider, c.EmbeddingProvider))
	}

	return errors.Join(errs...)
}

// GeneratorConfig returns the provider settings for answer generation.
func (c *Config) GeneratorConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:       c.LLMProvider,
		APIKey:         c.LLMAPIKey,
		BaseURL:        c.LLMBaseURL,
		Model:          c.LLMModel,
		EmbeddingModel: c.EmbeddingModel,
		Dim:            c.EmbeddingDim,
		Temperature:    c.LLMTemperature,
	}
}

// EmbedderConfig returns the provider settings for embeddings.
func (c *Config) EmbedderConfig() llm.ProviderConfig {
	return llm.ProviderConfig{
		Provider:       c.EmbeddingProvider,
		APIKey:         c.EmbeddingAPIKey,
		BaseURL:        c.EmbeddingBaseURL,
		Model:          c.LLMModel,
		EmbeddingModel: c.EmbeddingModel,
		Dim:            c.EmbeddingDim,
		Temperature:    c.LLMTemperature,
	}
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// loadDotEnv loads the nearest .env file, searching up to 5 parent directories.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i <= 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return v, nil
}
