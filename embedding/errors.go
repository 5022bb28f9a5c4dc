package embedding

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRetriesExhausted wraps the last error once every attempt has failed.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrBatchFailed is returned by Generate when a batch could not be embedded.
	// The ingestion run that requested it cannot continue.
	ErrBatchFailed = errors.New("embedding batch failed")

	// ErrVectorCountMismatch indicates the service returned a different number of vectors than texts.
	ErrVectorCountMismatch = errors.New("embedding count does not match input count")

	// ErrDimensionMismatch indicates a vector of unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrModelIDRequired is returned when no embedding model identifier is supplied.
	ErrModelIDRequired = errors.New("embedding model identifier is required")

	// ErrInvalidConfig is returned for out-of-range configuration values.
	ErrInvalidConfig = errors.New("invalid embedding config")
)
