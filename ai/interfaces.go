package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer produces a text completion from a system prompt and a conversation.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Complete sends the system prompt followed by messages and returns the reply text.
	// The last message is normally the user turn being answered.
	Complete(ctx context.Context, systemPrompt string, messages []Message) (string, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Completer returns the completion service used for answer synthesis.
	Completer() Completer

	// EmbeddingModelID identifies the embedding vector space (model and dimension).
	EmbeddingModelID() string

	// Close releases resources held by the provider and its services.
	Close() error
}
