package embedding

import (
	"fmt"
	"time"
)

// Config holds configuration for embedding generation.
type Config struct {
	// BatchSize is the number of chunks sent per embedding call.
	// Bounded by the service's per-call limit.
	BatchSize int

	// MaxRetries is the number of attempts per batch, including the first.
	MaxRetries int

	// BaseDelay is the backoff delay after the first failed attempt.
	BaseDelay time.Duration

	// InterBatchDelay is waited between batch starts to respect rate limits.
	InterBatchDelay time.Duration

	// Parallelism is the number of batches in flight at once.
	// Must not exceed the service's concurrent-request limit.
	Parallelism int

	// RequestTimeout bounds a single embedding call. A timed-out call is retried.
	RequestTimeout time.Duration

	// Dimensions is the expected vector length; 0 accepts whatever the service returns.
	Dimensions int

	// CostPerMillionTokens prices the usage estimate. Informational only.
	CostPerMillionTokens float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:            100,
		MaxRetries:           3,
		BaseDelay:            time.Second,
		InterBatchDelay:      200 * time.Millisecond,
		Parallelism:          1,
		RequestTimeout:       60 * time.Second,
		CostPerMillionTokens: 0.02,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	case c.MaxRetries <= 0:
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrInvalidMaxAttempts)
	case c.BaseDelay < 0 || c.InterBatchDelay < 0:
		return fmt.Errorf("%w: delays cannot be negative", ErrInvalidConfig)
	case c.Parallelism <= 0:
		return fmt.Errorf("%w: parallelism must be positive", ErrInvalidConfig)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	case c.Dimensions < 0:
		return fmt.Errorf("%w: dimensions cannot be negative", ErrInvalidConfig)
	}
	return nil
}
