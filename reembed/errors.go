package reembed

import "errors"

var (
	// ErrSpecRepositoryRequired is returned when no spec repository is supplied.
	ErrSpecRepositoryRequired = errors.New("spec repository is required")

	// ErrChunkRepositoryRequired is returned when no chunk repository is supplied.
	ErrChunkRepositoryRequired = errors.New("chunk repository is required")

	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrModelIDRequired is returned when no embedding model identifier is supplied.
	ErrModelIDRequired = errors.New("embedding model identifier is required")
)
