package config

import (
	"github.com/poiesic/specindex/ai"
	"github.com/poiesic/specindex/embedding"
	"github.com/poiesic/specindex/search"
)

// DefaultAPIKeyEnv names the environment variable holding the service API key.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero values with defaults.
func ApplyDefaults(cfg *Config) {
	aiDefaults := ai.DefaultConfig()
	embeddingDefaults := embedding.DefaultConfig()
	searchDefaults := search.DefaultConfig()

	if cfg.Database.Path == "" {
		cfg.Database.Path = "specindex.db"
	}

	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = aiDefaults.EmbeddingHost
	}
	if cfg.AI.CompletionHost == "" {
		cfg.AI.CompletionHost = cfg.AI.EmbeddingHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = aiDefaults.EmbeddingModel
	}
	if cfg.AI.CompletionModel == "" {
		cfg.AI.CompletionModel = aiDefaults.CompletionModel
	}
	if cfg.AI.APIKeyEnv == "" {
		cfg.AI.APIKeyEnv = DefaultAPIKeyEnv
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = aiDefaults.Temperature
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = aiDefaults.MaxTokens
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = aiDefaults.RequestTimeout
	}

	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = embeddingDefaults.BatchSize
	}
	if cfg.Embedding.MaxRetries == 0 {
		cfg.Embedding.MaxRetries = embeddingDefaults.MaxRetries
	}
	if cfg.Embedding.BaseDelay == 0 {
		cfg.Embedding.BaseDelay = embeddingDefaults.BaseDelay
	}
	if cfg.Embedding.InterBatchDelay == 0 {
		cfg.Embedding.InterBatchDelay = embeddingDefaults.InterBatchDelay
	}
	if cfg.Embedding.Parallelism == 0 {
		cfg.Embedding.Parallelism = embeddingDefaults.Parallelism
	}
	if cfg.Embedding.CostPerMillionTokens == 0 {
		cfg.Embedding.CostPerMillionTokens = embeddingDefaults.CostPerMillionTokens
	}

	if cfg.Search.Threshold == 0 {
		cfg.Search.Threshold = searchDefaults.Threshold
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = searchDefaults.MaxResults
	}
	if cfg.Search.HistoryTurns == 0 {
		cfg.Search.HistoryTurns = searchDefaults.HistoryTurns
	}
	if cfg.Search.CompletionTimeout == 0 {
		cfg.Search.CompletionTimeout = searchDefaults.CompletionTimeout
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 2 * cfg.Search.CompletionTimeout
	}
}
