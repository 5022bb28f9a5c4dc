// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/specindex/ai"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/embedding"
	"github.com/poiesic/specindex/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of chunks to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chunks)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each embedding call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Result summarizes a completed run.
type Result struct {
	Chunks     int
	Documents  int
	Dimensions int
	Duration   time.Duration
}

// Reembedder orchestrates the reembedding of every stored chunk.
type Reembedder struct {
	specRepo  storage.SpecRepository
	chunkRepo storage.ChunkRepository
	modelID   string
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder that stamps vectors with modelID.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(
	specRepo storage.SpecRepository,
	chunkRepo storage.ChunkRepository,
	embedder ai.Embedder,
	modelID string,
	config *Config,
	progress io.Writer,
) (*Reembedder, error) {
	if specRepo == nil {
		return nil, ErrSpecRepositoryRequired
	}
	if chunkRepo == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if modelID == "" {
		return nil, ErrModelIDRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		specRepo:  specRepo,
		chunkRepo: chunkRepo,
		modelID:   modelID,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(chunkRepo, embedder, modelID, config.MaxRetries, config.RetryDelay),
		logger:    slog.Default().With("component", "reembed"),
	}, nil
}

// Run re-embeds every stored chunk and then records the new model on each document.
// Documents are only updated when every chunk was processed.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	total, err := r.chunkRepo.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	result := &Result{}
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in database (0 chunks)\n")
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks with %s (batch size: %d)\n",
		total, r.modelID, r.config.BatchSize)
	r.logger.Info("reembedding chunks", "chunks", total, "model", r.modelID)

	tracker := embedding.NewProgressTracker(r.progress, total, r.config.ReportInterval, "chunks")
	tracker.Start()

	err = r.chunkRepo.ForEachChunk(ctx, r.config.BatchSize, func(chunks []*core.ChunkWithEmbedding) error {
		if err := r.processor.Process(ctx, chunks); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		result.Chunks += len(chunks)
		result.Dimensions = len(chunks[0].Embedding)
		tracker.Update(result.Chunks)
		return nil
	})
	if err != nil {
		r.logger.Error("reembedding aborted", "processed", result.Chunks, "err", err)
		return result, err
	}
	tracker.Finish()

	docs, err := r.specRepo.ListDocuments(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list documents: %w", err)
	}
	for _, doc := range docs {
		doc.EmbeddingModel = r.modelID
		doc.EmbeddingDimensions = result.Dimensions
		if err := r.specRepo.UpdateDocument(ctx, doc); err != nil {
			return result, fmt.Errorf("failed to update document %d: %w", doc.Id, err)
		}
		result.Documents++
	}

	result.Duration = tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		result.Chunks, result.Duration.Round(time.Second), float64(result.Chunks)/result.Duration.Seconds())

	return result, nil
}
