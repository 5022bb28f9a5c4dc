package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.CompletionHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.CompletionModel)
	assert.Equal(t, "none", cfg.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.CompletionHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithCompletionHost("http://complete:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://complete:9090/v1", cfg.CompletionHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithEmbeddingDimensions(1536),
			WithCompletionModel("gpt-4o-mini"),
			WithAPIKey("sk-test"),
			WithRequestTimeout(5*time.Second),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, 1536, cfg.EmbeddingDimensions)
		assert.Equal(t, "gpt-4o-mini", cfg.CompletionModel)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	})
}

func TestEmbeddingModelID(t *testing.T) {
	cfg := NewConfig(WithEmbeddingModel("text-embedding-3-small"))
	assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModelID())

	cfg.EmbeddingDimensions = 512
	assert.Equal(t, "text-embedding-3-small@512", cfg.EmbeddingModelID())
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name               string
		embeddingHost      string
		completionHost     string
		expectedEmbedding  string
		expectedCompletion string
	}{
		{"already has /v1", "http://localhost:11434/v1", "http://localhost:11434/v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing /v1", "http://localhost:11434", "http://localhost:11434", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"has trailing slash", "http://localhost:11434/", "http://localhost:11434/", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"empty hosts", "", "", "", ""},
		{"different formats", "http://embed:8080", "http://complete:9090/v1", "http://embed:8080/v1", "http://complete:9090/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingHost:  tt.embeddingHost,
				CompletionHost: tt.completionHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedEmbedding, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedCompletion, cfg.CompletionHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:   "http://localhost:11434",
			CompletionHost:  "http://localhost:11434",
			EmbeddingModel:  "embeddinggemma",
			CompletionModel: "qwen2.5:3b",
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()
		require.NoError(t, cfg.Validate())

		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.CompletionHost)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing completion host", func(c *Config) { c.CompletionHost = "" }, "CompletionHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"missing completion model", func(c *Config) { c.CompletionModel = "" }, "CompletionModel"},
		{"negative dimensions", func(c *Config) { c.EmbeddingDimensions = -1 }, "EmbeddingDimensions"},
		{"temperature too high", func(c *Config) { c.Temperature = 3 }, "Temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
