package embedding

import (
	"time"

	"github.com/poiesic/specindex/chunker"
	"github.com/poiesic/specindex/core"
)

// Usage summarizes an embedding run for operators. The token figure uses the chunker's
// estimate, so the cost is approximate.
type Usage struct {
	Chunks           int
	Batches          int
	Tokens           int
	EstimatedCostUSD float64
	Duration         time.Duration
}

// EstimateUsage totals the estimated tokens of the embedding inputs of chunks.
func EstimateUsage(chunks []*core.Chunk, costPerMillionTokens float64) Usage {
	usage := Usage{Chunks: len(chunks)}
	for _, c := range chunks {
		usage.Tokens += chunker.EstimateTokens(c.EmbeddingInput())
	}
	usage.EstimatedCostUSD = float64(usage.Tokens) / 1_000_000 * costPerMillionTokens
	return usage
}
