package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"portfolio-rag/internal/llm"
)

var configEnvVars = []string{
	"API_PORT", "LOG_LEVEL", "LOG_FORMAT", "DB_PATH", "CORPUS_DIR",
	"STORE_BACKEND", "QDRANT_URL", "QDRANT_COLLECTION", "EMBEDDING_DIM",
	"LLM_PROVIDER", "LLM_API_KEY", "LLM_BASE_URL", "LLM_MODEL", "LLM_TEMPERATURE",
	"EMBEDDING_PROVIDER", "EMBEDDING_API_KEY", "EMBEDDING_BASE_URL", "EMBEDDING_MODEL",
	"RAG_TOP_K", "RAG_TOKEN_BUDGET", "INTENT_RERANK_ENABLED", "TUNING_PATH",
}

// clearEnv blanks every variable Load reads. Blank values count as unset and
// keep a stray .env file from filling them in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
	}
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "data", "test.db"))
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*testing.T, *Config)
	}{
		{
			name: "defaults with api key",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_API_KEY", "sk-test")
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.APIPort != "9000" || cfg.StoreBackend != BackendMemory || cfg.CorpusDir != "./data/rag" {
					t.Errorf("unexpected defaults: %+v", cfg)
				}
				if cfg.EmbeddingDim != 1536 || cfg.RAGTopK != 5 || cfg.RAGTokenBudget != 2200 {
					t.Errorf("unexpected numeric defaults: %+v", cfg)
				}
				if cfg.LLMModel != "gpt-4o-mini" || cfg.EmbeddingModel != "text-embedding-3-small" {
					t.Errorf("unexpected models: %s / %s", cfg.LLMModel, cfg.EmbeddingModel)
				}
				if cfg.LLMTemperature != 0.3 || !cfg.IntentRerankEnabled {
					t.Errorf("unexpected temperature/rerank: %v / %v", cfg.LLMTemperature, cfg.IntentRerankEnabled)
				}
				if cfg.EmbeddingAPIKey != "sk-test" {
					t.Errorf("EmbeddingAPIKey = %q, want fallback to LLM_API_KEY", cfg.EmbeddingAPIKey)
				}
			},
		},
		{
			name: "custom values",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_PROVIDER", "anthropic")
				t.Setenv("LLM_API_KEY", "ak")
				t.Setenv("LLM_MODEL", "claude-3-5-haiku-latest")
				t.Setenv("EMBEDDING_PROVIDER", "ollama")
				t.Setenv("EMBEDDING_MODEL", "nomic-embed-text")
				t.Setenv("EMBEDDING_DIM", "768")
				t.Setenv("STORE_BACKEND", "QDRANT")
				t.Setenv("RAG_TOP_K", "10")
				t.Setenv("LLM_TEMPERATURE", "0")
				t.Setenv("INTENT_RERANK_ENABLED", "false")
			},
			checkConfig: func(t *testing.T, cfg *Config) {
				if cfg.StoreBackend != BackendQdrant || cfg.EmbeddingDim != 768 || cfg.RAGTopK != 10 {
					t.Errorf("unexpected config: %+v", cfg)
				}
				if cfg.IntentRerankEnabled {
					t.Error("IntentRerankEnabled should be false")
				}
				gen := cfg.GeneratorConfig()
				if gen.Provider != "anthropic" || gen.Model != "claude-3-5-haiku-latest" || gen.APIKey != "ak" {
					t.Errorf("GeneratorConfig() = %+v", gen)
				}
				emb := cfg.EmbedderConfig()
				if emb.Provider != "ollama" || emb.EmbeddingModel != "nomic-embed-text" || emb.Dim != 768 {
					t.Errorf("EmbedderConfig() = %+v", emb)
				}
			},
		},
		{
			name: "ollama needs no key",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_PROVIDER", "ollama")
				t.Setenv("EMBEDDING_PROVIDER", "ollama")
			},
		},
		{
			name:     "missing api key",
			setupEnv: func(t *testing.T) {},
			wantErr:  true,
		},
		{
			name: "non-integer dim",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_API_KEY", "sk-test")
				t.Setenv("EMBEDDING_DIM", "abc")
			},
			wantErr: true,
		},
		{
			name: "zero dim",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_API_KEY", "sk-test")
				t.Setenv("EMBEDDING_DIM", "0")
			},
			wantErr: true,
		},
		{
			name: "unknown backend",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_API_KEY", "sk-test")
				t.Setenv("STORE_BACKEND", "redis")
			},
			wantErr: true,
		},
		{
			name: "top k above cap",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_API_KEY", "sk-test")
				t.Setenv("RAG_TOP_K", "11")
			},
			wantErr: true,
		},
		{
			name: "bad temperature",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_API_KEY", "sk-test")
				t.Setenv("LLM_TEMPERATURE", "warm")
			},
			wantErr: true,
		},
		{
			name: "bad rerank flag",
			setupEnv: func(t *testing.T) {
				t.Setenv("LLM_API_KEY", "sk-test")
				t.Setenv("INTENT_RERANK_ENABLED", "maybe")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			tt.setupEnv(t)

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.checkConfig != nil {
				tt.checkConfig(t, cfg)
			}
		})
	}
}

func TestLoad_UnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("LLM_PROVIDER", "mistral")

	_, err := Load()
	if !errors.Is(err, llm.ErrUnknownProvider) {
		t.Errorf("Load() error = %v, want ErrUnknownProvider", err)
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_KEY", "sk-test")
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "rag.db")
	t.Setenv("DB_PATH", dbPath)

	if _, err := Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Errorf("data directory was not created: %v", err)
	}
}

func TestConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.level}
			if got := cfg.SlogLevel(); got != tt.want {
				t.Errorf("SlogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_GET_ENV", "value")
	if got := getEnv("TEST_GET_ENV", "default"); got != "value" {
		t.Errorf("getEnv() = %q, want value", got)
	}
	t.Setenv("TEST_GET_ENV", "")
	if got := getEnv("TEST_GET_ENV", "default"); got != "default" {
		t.Errorf("getEnv() = %q, want default", got)
	}
}
