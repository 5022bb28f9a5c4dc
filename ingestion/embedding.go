package ingestion

import (
	"context"
	"fmt"

	"github.com/poiesic/specindex/core"
)

// embed runs the embed stage. A failure is fatal to the run.
func (p *Pipeline) embed(ctx context.Context, chunks []*core.Chunk, report *Report) ([]*core.ChunkWithEmbedding, error) {
	p.logger.Info("embedding chunks", "chunks", len(chunks), "model", p.generator.ModelID())

	embedded, usage, err := p.generator.Generate(ctx, chunks)
	report.Usage = usage
	if err != nil {
		report.record(StageEmbed, 0, len(chunks))
		p.logger.Error("error generating embeddings", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	report.record(StageEmbed, len(embedded), len(chunks)-len(embedded))
	return embedded, nil
}
