package search

import (
	"fmt"
	"time"
)

// Config holds query defaults and per-call timeouts.
type Config struct {
	// Threshold is the minimum cosine similarity a chunk needs to be returned.
	Threshold float32

	// MaxResults caps the number of chunks returned.
	MaxResults int

	// HistoryTurns is how many trailing conversation messages are sent with a synthesis request.
	HistoryTurns int

	EmbedTimeout      time.Duration
	SearchTimeout     time.Duration
	CompletionTimeout time.Duration

	// LogTimeout bounds the background query-log write.
	LogTimeout time.Duration
}

// DefaultConfig returns the default query configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:         0.60,
		MaxResults:        5,
		HistoryTurns:      6,
		EmbedTimeout:      30 * time.Second,
		SearchTimeout:     30 * time.Second,
		CompletionTimeout: 60 * time.Second,
		LogTimeout:        5 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Threshold < -1 || c.Threshold > 1:
		return fmt.Errorf("%w: threshold must be within [-1, 1]", ErrInvalidConfig)
	case c.MaxResults <= 0:
		return fmt.Errorf("%w: max results must be positive", ErrInvalidConfig)
	case c.HistoryTurns < 0:
		return fmt.Errorf("%w: history turns cannot be negative", ErrInvalidConfig)
	case c.EmbedTimeout <= 0 || c.SearchTimeout <= 0 || c.CompletionTimeout <= 0 || c.LogTimeout <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}
	return nil
}
