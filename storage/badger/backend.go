package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/storage"
)

const (
	defaultSequenceBandwidth = 100

	// searchCancelCheckInterval is how many chunks Search scans between context checks.
	searchCancelCheckInterval = 256
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if err := os.MkdirAll(filePath, 0755); err != nil {
				return nil, err
			}
			info, err = os.Stat(filePath)
			if err != nil {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default().With("component", "badger")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// WithBatch executes fn against a write batch and flushes it.
// A batch is not bound by the transaction size limit, which matters for
// chunk inserts carrying thousands of vectors.
func (b *Backend) WithBatch(fn func(wb *badger.WriteBatch) error) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	if err := fn(wb); err != nil {
		return err
	}
	return wb.Flush()
}

// GetSequence returns a BadgerDB sequence for generating sequential IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

// WithTransaction executes a function within a transaction.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.WithTx(func(tx *badger.Txn) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Search scans stored chunks and returns those similar to embedding.
// Chunks are skipped when their model differs from filters.EmbeddingModel, when their
// section is not in filters.SectionIds, or when they share no code with filters.PayItemCodes.
func (b *Backend) Search(ctx context.Context, embedding []float32, threshold float32, k int, filters core.SearchFilters) ([]*core.ChunkMatch, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", storage.ErrInvalidQuery, k)
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", storage.ErrInvalidQuery)
	}
	queryNorm := norm(embedding)
	if queryNorm == 0 {
		return nil, fmt.Errorf("%w: zero query embedding", storage.ErrInvalidQuery)
	}

	var sections map[core.ID]struct{}
	if len(filters.SectionIds) > 0 {
		sections = make(map[core.ID]struct{}, len(filters.SectionIds))
		for _, id := range filters.SectionIds {
			sections[id] = struct{}{}
		}
	}

	var results []*core.ChunkMatch
	skippedModel := 0

	err := b.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		scanned := 0
		for iter.Rewind(); iter.Valid(); iter.Next() {
			scanned++
			if scanned%searchCancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}

			var chunk *core.ChunkWithEmbedding
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}

			if len(chunk.Embedding) == 0 {
				continue
			}
			if filters.EmbeddingModel != "" && chunk.EmbeddingModel != filters.EmbeddingModel {
				skippedModel++
				continue
			}
			if len(chunk.Embedding) != len(embedding) {
				skippedModel++
				continue
			}
			if sections != nil {
				if _, ok := sections[chunk.SectionId]; !ok {
					continue
				}
			}
			if len(filters.PayItemCodes) > 0 && !sharesCode(chunk.PayItemCodes, filters.PayItemCodes) {
				continue
			}

			similarity := cosineSimilarity(embedding, queryNorm, chunk.Embedding)
			if similarity >= threshold {
				results = append(results, &core.ChunkMatch{
					Chunk:      chunk,
					Similarity: similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	if skippedModel > 0 {
		b.logger.Debug("skipped chunks embedded with another model", "count", skippedModel, "model", filters.EmbeddingModel)
	}

	// Sort by similarity descending; ties keep the earlier chunk first.
	slices.SortStableFunc(results, func(a, b *core.ChunkMatch) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		return a.Chunk.ChunkIndex - b.Chunk.ChunkIndex
	})

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

// cosineSimilarity scores a stored vector against the query. Stored vectors are
// normalized at ingestion, but the query may come from anywhere.
func cosineSimilarity(query []float32, queryNorm float64, stored []float32) float32 {
	storedNorm := norm(stored)
	if storedNorm == 0 {
		return 0
	}
	return float32(float64(dotProduct(query, stored)) / (queryNorm * storedNorm))
}

// dotProduct calculates the dot product of two vectors.
func dotProduct(a, b []float32) float32 {
	var sum float32
	minLen := min(len(a), len(b))
	for i := 0; i < minLen; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func sharesCode(have, want []string) bool {
	for _, code := range want {
		if slices.Contains(have, code) {
			return true
		}
	}
	return false
}
