// Package config loads specindex settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/specindex/ai"
	"github.com/poiesic/specindex/embedding"
	"github.com/poiesic/specindex/reembed"
	"github.com/poiesic/specindex/search"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	AI        AIConfig        `yaml:"ai"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Server    ServerConfig    `yaml:"server"`
}

// DatabaseConfig locates the badger store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AIConfig holds the embedding and completion service settings.
type AIConfig struct {
	EmbeddingHost       string        `yaml:"embedding_host"`
	CompletionHost      string        `yaml:"completion_host"`
	EmbeddingModel      string        `yaml:"embedding_model"`
	EmbeddingDimensions int           `yaml:"embedding_dimensions"`
	CompletionModel     string        `yaml:"completion_model"`
	APIKeyEnv           string        `yaml:"api_key_env"`
	Temperature         float64       `yaml:"temperature"`
	MaxTokens           int           `yaml:"max_tokens"`
	Timeout             time.Duration `yaml:"timeout"`
}

// EmbeddingConfig holds batch embedding settings used by ingestion and re-embedding.
type EmbeddingConfig struct {
	BatchSize            int           `yaml:"batch_size"`
	MaxRetries           int           `yaml:"max_retries"`
	BaseDelay            time.Duration `yaml:"base_delay"`
	InterBatchDelay      time.Duration `yaml:"inter_batch_delay"`
	Parallelism          int           `yaml:"parallelism"`
	CostPerMillionTokens float64       `yaml:"cost_per_million_tokens"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	Threshold         float32       `yaml:"threshold"`
	MaxResults        int           `yaml:"max_results"`
	HistoryTurns      int           `yaml:"history_turns"`
	CompletionTimeout time.Duration `yaml:"completion_timeout"`
	LogQueries        *bool         `yaml:"log_queries"`
}

// LogQueriesOrDefault reports whether queries are recorded; defaults to true when unset.
func (s *SearchConfig) LogQueriesOrDefault() bool {
	if s.LogQueries != nil {
		return *s.LogQueries
	}
	return true
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Load reads a config from path. An empty path or a missing file yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	ApplyDefaults(&cfg)

	if cfg.Database.Path != "" && !filepath.IsAbs(cfg.Database.Path) {
		cfg.Database.Path = filepath.Join(filepath.Dir(path), cfg.Database.Path)
	}
	return &cfg, nil
}

// LoadEnv loads environment variables from .env files. Without arguments it reads
// ./.env if present; named files must exist.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// Validate checks every derived package configuration.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("config: database path is required")
	}
	if err := c.AIConfig().Validate(); err != nil {
		return err
	}
	if err := c.EmbeddingConfig().Validate(); err != nil {
		return err
	}
	return c.SearchConfig().Validate()
}

// APIKey returns the key held by the environment variable named in ai.api_key_env.
// Local servers accept any value, so a missing key becomes "none".
func (c *Config) APIKey() string {
	if key := os.Getenv(c.AI.APIKeyEnv); key != "" {
		return key
	}
	return "none"
}

// AIConfig converts to the provider configuration.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithCompletionHost(c.AI.CompletionHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithEmbeddingDimensions(c.AI.EmbeddingDimensions),
		ai.WithCompletionModel(c.AI.CompletionModel),
		ai.WithAPIKey(c.APIKey()),
		ai.WithRequestTimeout(c.AI.Timeout),
		func(cfg *ai.Config) {
			cfg.Temperature = c.AI.Temperature
			cfg.MaxTokens = c.AI.MaxTokens
		},
	)
}

// EmbeddingConfig converts to the batch embedding configuration.
func (c *Config) EmbeddingConfig() embedding.Config {
	cfg := embedding.DefaultConfig()
	cfg.BatchSize = c.Embedding.BatchSize
	cfg.MaxRetries = c.Embedding.MaxRetries
	cfg.BaseDelay = c.Embedding.BaseDelay
	cfg.InterBatchDelay = c.Embedding.InterBatchDelay
	cfg.Parallelism = c.Embedding.Parallelism
	cfg.RequestTimeout = c.AI.Timeout
	cfg.Dimensions = c.AI.EmbeddingDimensions
	cfg.CostPerMillionTokens = c.Embedding.CostPerMillionTokens
	return cfg
}

// SearchConfig converts to the query engine configuration.
func (c *Config) SearchConfig() search.Config {
	cfg := search.DefaultConfig()
	cfg.Threshold = c.Search.Threshold
	cfg.MaxResults = c.Search.MaxResults
	cfg.HistoryTurns = c.Search.HistoryTurns
	cfg.CompletionTimeout = c.Search.CompletionTimeout
	cfg.EmbedTimeout = c.AI.Timeout
	return cfg
}

// ReembedConfig converts to the re-embedding configuration.
func (c *Config) ReembedConfig() *reembed.Config {
	cfg := reembed.DefaultConfig()
	cfg.BatchSize = c.Embedding.BatchSize
	cfg.ReportInterval = c.Embedding.BatchSize
	cfg.MaxRetries = c.Embedding.MaxRetries
	cfg.RetryDelay = c.Embedding.BaseDelay
	return cfg
}
