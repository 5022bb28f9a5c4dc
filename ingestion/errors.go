package ingestion

import "errors"

var (
	// ErrSpecRepositoryRequired is returned when a spec repository is not provided.
	ErrSpecRepositoryRequired = errors.New("spec repository required")

	// ErrChunkRepositoryRequired is returned when a chunk repository is not provided.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmptyDocument is returned when the document text is blank.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrNoSections is returned when parsing found no section to index.
	ErrNoSections = errors.New("no sections found in document")

	// ErrEmbeddingFailed is returned when chunk embedding could not complete.
	// Nothing from the run is persisted in that case.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrPersistFailed is returned when the store rejected a whole stage.
	ErrPersistFailed = errors.New("persisting document failed")
)
