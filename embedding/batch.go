package embedding

import "github.com/poiesic/specindex/core"

// Batch is a contiguous run of chunks embedded in one call.
type Batch struct {
	Index  int
	Offset int // position of the first chunk in the run
	Chunks []*core.Chunk
	Texts  []string
}

// BatchBuilder groups chunks into fixed-size batches in input order.
// A builder belongs to one Generate call and is never shared.
type BatchBuilder struct {
	size    int
	added   int
	batches []*Batch
}

// NewBatchBuilder creates a builder for batches of at most size chunks.
func NewBatchBuilder(size int) *BatchBuilder {
	return &BatchBuilder{size: max(size, 1)}
}

// Add appends a chunk, starting a new batch when the current one is full.
func (b *BatchBuilder) Add(chunk *core.Chunk) {
	n := len(b.batches)
	if n == 0 || len(b.batches[n-1].Chunks) == b.size {
		b.batches = append(b.batches, &Batch{Index: n, Offset: b.added})
		n++
	}
	current := b.batches[n-1]
	current.Chunks = append(current.Chunks, chunk)
	current.Texts = append(current.Texts, chunk.EmbeddingInput())
	b.added++
}

// Batches returns the batches built so far.
func (b *BatchBuilder) Batches() []*Batch {
	return b.batches
}

// Len returns the number of chunks added.
func (b *BatchBuilder) Len() int {
	return b.added
}
