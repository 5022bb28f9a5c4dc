package reembed

import (
	"context"
	"fmt"
	"time"

	"github.com/poiesic/specindex/ai"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/embedding"
	"github.com/poiesic/specindex/storage"
)

// BatchProcessor re-embeds batches of stored chunks.
type BatchProcessor struct {
	repo           storage.ChunkRepository
	embedder       ai.Embedder
	modelID        string
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of attempts for each embedding call
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.ChunkRepository, embedder ai.Embedder, modelID string, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:           repo,
		embedder:       embedder,
		modelID:        modelID,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// Process generates embeddings for a batch of chunks and writes them back.
// Vectors are normalized before they are stored.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.ChunkWithEmbedding) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.EmbeddingInput()
	}

	var vectors [][]float32
	err := embedding.RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = bp.embedder.EmbedTexts(ctx, texts)
		if err == nil && len(vectors) != len(texts) {
			return embedding.Permanent(fmt.Errorf("%w: expected %d, got %d", embedding.ErrVectorCountMismatch, len(texts), len(vectors)))
		}
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	for i, chunk := range chunks {
		chunk.Embedding = embedding.NormalizeVector(vectors[i])
		chunk.EmbeddingModel = bp.modelID
	}

	if err := bp.repo.UpdateChunks(ctx, chunks...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}
	return nil
}
