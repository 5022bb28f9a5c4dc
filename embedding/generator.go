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


package embedding

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/specindex/ai"
	"github.com/poiesic/specindex/core"
)

// Generator embeds chunks in batches with retry, throttling and optional parallelism.
type Generator struct {
	embedder ai.Embedder
	modelID  string
	config   Config
	progress io.Writer
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator) error

// WithConfig replaces the default configuration.
func WithConfig(config Config) Option {
	return func(g *Generator) error {
		if err := config.Validate(); err != nil {
			return err
		}
		g.config = config
		return nil
	}
}

// WithProgress writes a progress line to w while embedding.
func WithProgress(w io.Writer) Option {
	return func(g *Generator) error {
		g.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// NewGenerator creates a generator that stamps vectors with modelID.
func NewGenerator(embedder ai.Embedder, modelID string, opts ...Option) (*Generator, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if modelID == "" {
		return nil, ErrModelIDRequired
	}

	g := &Generator{
		embedder: embedder,
		modelID:  modelID,
		config:   DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	g.logger = g.logger.With("component", "embedding-generator")
	return g, nil
}

// ModelID returns the identifier stamped on every generated vector.
func (g *Generator) ModelID() string {
	return g.modelID
}

// Generate embeds chunks and returns them in input order with unit-length vectors.
//
// Any batch that still fails after its retries aborts the whole run with ErrBatchFailed;
// no partial result is returned. Usage is returned in every case.
func (g *Generator) Generate(ctx context.Context, chunks []*core.Chunk) ([]*core.ChunkWithEmbedding, *Usage, error) {
	start := time.Now()
	usage := EstimateUsage(chunks, g.config.CostPerMillionTokens)
	if len(chunks) == 0 {
		return nil, &usage, nil
	}

	builder := NewBatchBuilder(g.config.BatchSize)
	for _, c := range chunks {
		builder.Add(c)
	}
	batches := builder.Batches()
	usage.Batches = len(batches)

	var tracker *ProgressTracker
	if g.progress != nil {
		tracker = NewProgressTracker(g.progress, len(chunks), g.config.BatchSize, "chunks")
		tracker.Start()
	}

	g.logger.Info("embedding chunks", "chunks", len(chunks), "batches", len(batches), "parallelism", g.config.Parallelism)

	vectors := make([][][]float32, len(batches))
	var err error
	if g.config.Parallelism > 1 && len(batches) > 1 {
		err = g.runParallel(ctx, batches, vectors, tracker)
	} else {
		err = g.runSequential(ctx, batches, vectors, tracker)
	}
	usage.Duration = time.Since(start)
	if err != nil {
		g.logger.Error("embedding failed", "err", err)
		return nil, &usage, err
	}
	if tracker != nil {
		tracker.Finish()
	}

	out := make([]*core.ChunkWithEmbedding, 0, len(chunks))
	for i, batch := range batches {
		for j, c := range batch.Chunks {
			out = append(out, &core.ChunkWithEmbedding{
				Chunk:          *c,
				EmbeddingModel: g.modelID,
				Embedding:      NormalizeVector(vectors[i][j]),
			})
		}
	}

	g.logger.Info("embedded chunks",
		"chunks", usage.Chunks,
		"tokens", usage.Tokens,
		"estimatedCostUSD", fmt.Sprintf("%.4f", usage.EstimatedCostUSD),
		"duration", usage.Duration)
	return out, &usage, nil
}

func (g *Generator) runSequential(ctx context.Context, batches []*Batch, vectors [][][]float32, tracker *ProgressTracker) error {
	for i, batch := range batches {
		if i > 0 {
			if err := g.pause(ctx); err != nil {
				return err
			}
		}
		v, err := g.embedBatch(ctx, batch)
		if err != nil {
			return err
		}
		vectors[i] = v
		if tracker != nil {
			tracker.Increment(len(batch.Chunks))
		}
	}
	return nil
}

// runParallel hands batches to a bounded worker pool. Submissions are spaced by the
// inter-batch delay; the pool size caps concurrent requests. The first failure cancels
// the batches that have not finished.
func (g *Generator) runParallel(ctx context.Context, batches []*Batch, vectors [][][]float32, tracker *ProgressTracker) error {
	pool, err := ants.NewPool(g.config.Parallelism)
	if err != nil {
		return err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i, batch := range batches {
		if i > 0 {
			if err := g.pause(ctx); err != nil {
				fail(err)
				break
			}
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			v, err := g.embedBatch(ctx, batch)
			if err != nil {
				fail(err)
				return
			}
			// each worker writes its own index
			vectors[batch.Index] = v
			if tracker != nil {
				tracker.Increment(len(batch.Chunks))
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()
	return firstErr
}

func (g *Generator) pause(ctx context.Context) error {
	if g.config.InterBatchDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(g.config.InterBatchDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// embedBatch embeds one batch under the retry policy. Each attempt carries its own timeout.
func (g *Generator) embedBatch(ctx context.Context, batch *Batch) ([][]float32, error) {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.config.RequestTimeout)
		defer cancel()

		v, err := g.embedder.EmbedTexts(callCtx, batch.Texts)
		if err != nil {
			g.logger.Warn("embedding call failed", "batch", batch.Index, "err", err)
			return err
		}
		if len(v) != len(batch.Texts) {
			return Permanent(fmt.Errorf("%w: got %d, want %d", ErrVectorCountMismatch, len(v), len(batch.Texts)))
		}
		if g.config.Dimensions > 0 {
			for _, vec := range v {
				if len(vec) != g.config.Dimensions {
					return Permanent(fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), g.config.Dimensions))
				}
			}
		}
		vectors = v
		return nil
	}, g.config.MaxRetries, g.config.BaseDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: batch %d (chunks %d-%d): %w",
			ErrBatchFailed, batch.Index, batch.Offset, batch.Offset+len(batch.Chunks)-1, err)
	}
	return vectors, nil
}
