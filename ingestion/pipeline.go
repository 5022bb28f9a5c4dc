package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/specindex/ai"
	"github.com/poiesic/specindex/chunker"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/embedding"
	"github.com/poiesic/specindex/parser"
	"github.com/poiesic/specindex/storage"
)

// Pipeline turns raw manual text into stored, embedded chunks.
type Pipeline struct {
	specRepository  storage.SpecRepository
	chunkRepository storage.ChunkRepository
	parser          *parser.Parser
	chunker         *chunker.Chunker
	generator       *embedding.Generator
	embeddingConfig embedding.Config
	progress        io.Writer
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithEmbeddingConfig sets batching, retry and parallelism for the embed stage.
// Default is embedding.DefaultConfig().
func WithEmbeddingConfig(config embedding.Config) Option {
	return func(p *Pipeline) error {
		if err := config.Validate(); err != nil {
			return err
		}
		p.embeddingConfig = config
		return nil
	}
}

// WithProgress writes embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	specRepository storage.SpecRepository,
	chunkRepository storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if specRepository == nil {
		return nil, ErrSpecRepositoryRequired
	}
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	p := &Pipeline{
		specRepository:  specRepository,
		chunkRepository: chunkRepository,
		embeddingConfig: embedding.DefaultConfig(),
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	// Build stages after options are applied so they get the final logger and config
	p.parser = parser.New(parser.WithLogger(p.logger))
	p.chunker = chunker.New(chunker.WithLogger(p.logger))

	genOpts := []embedding.Option{
		embedding.WithConfig(p.embeddingConfig),
		embedding.WithLogger(p.logger),
	}
	if p.progress != nil {
		genOpts = append(genOpts, embedding.WithProgress(p.progress))
	}
	generator, err := embedding.NewGenerator(provider.Embedder(), provider.EmbeddingModelID(), genOpts...)
	if err != nil {
		return nil, err
	}
	p.generator = generator
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// Ingest parses, chunks, embeds and stores one version of the manual under name.
//
// Parsing and chunking never fail. Embedding runs before anything is written, so an
// embedding failure leaves the store untouched and is returned wrapped in
// ErrEmbeddingFailed. Entities rejected by the store are counted in the report and
// the run continues. The report is returned in every case.
func (p *Pipeline) Ingest(ctx context.Context, name, raw string) (*Report, error) {
	start := time.Now()
	report := &Report{Name: name}
	defer func() { report.Duration = time.Since(start) }()

	if strings.TrimSpace(raw) == "" {
		return report, ErrEmptyDocument
	}

	// Parse
	result := p.parser.Parse(raw)
	report.record(StageParse, len(result.Sections), 0)
	if len(result.Sections) == 0 {
		return report, ErrNoSections
	}

	// Chunk
	chunks := p.chunker.Chunk(result.Sections, result.Subsections)
	report.record(StageChunk, len(chunks), 0)

	// Embed
	embedded, err := p.embed(ctx, chunks, report)
	if err != nil {
		return report, err
	}

	// Persist
	if err := p.persist(ctx, name, result, embedded, report); err != nil {
		return report, err
	}

	p.logger.Info("document ingested",
		"name", name,
		"documentId", report.DocumentId,
		"chunks", len(embedded),
		"failed", report.Failed(),
		"duration", time.Since(start))
	return report, nil
}

// stageOutcome records a persistence stage. Partial writes are counted and the run
// continues; any other error aborts it.
func (p *Pipeline) stageOutcome(report *Report, stage string, total, written int, err error) error {
	if err != nil && !errors.Is(err, storage.ErrPartialWrite) {
		report.record(stage, 0, total)
		p.logger.Error("stage failed", "stage", stage, "err", err)
		return fmt.Errorf("%w: %s: %w", ErrPersistFailed, stage, err)
	}
	report.record(stage, written, total-written)
	if total > written {
		p.logger.Warn("stage incomplete", "stage", stage, "written", written, "failed", total-written)
	}
	return nil
}

// documentFor builds the document record stamped with the embedding model used.
func documentFor(name, modelID string, embedded []*core.ChunkWithEmbedding) *core.Document {
	doc := &core.Document{Name: name, EmbeddingModel: modelID}
	if len(embedded) > 0 {
		doc.EmbeddingDimensions = len(embedded[0].Embedding)
	}
	return doc
}
