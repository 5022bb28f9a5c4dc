package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/storage"
)

const defaultChunkPageSize = 100

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	return &ChunkRepository{
		backend: backend,
		logger:  backend.logger.With("repository", "chunk"),
	}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *ChunkRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Search delegates to the backend.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, threshold float32, k int, filters core.SearchFilters) ([]*core.ChunkMatch, error) {
	return r.backend.Search(ctx, embedding, threshold, k, filters)
}

// InsertChunks stores embedded chunks for a document.
// A chunk is only written when its section was stored; header chunks carry no subsection.
func (r *ChunkRepository) InsertChunks(ctx context.Context, docID core.ID, sectionIDs, subsectionIDs map[string]core.ID, chunks []*core.ChunkWithEmbedding) (int, error) {
	written := 0
	var failures []error

	err := r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, chunk := range chunks {
			if err := core.ValidateChunkWithEmbedding(chunk); err != nil {
				failures = append(failures, err)
				continue
			}
			secID, ok := sectionIDs[chunk.SectionNumber]
			if !ok {
				failures = append(failures, fmt.Errorf("chunk %d: %w", chunk.ChunkIndex, storage.ErrMissingSection))
				continue
			}
			chunk.DocumentId = docID
			chunk.SectionId = secID
			chunk.SubsectionId = 0
			if chunk.SubsectionNumber != "" {
				chunk.SubsectionId = subsectionIDs[chunk.SubsectionNumber]
			}
			chunk.Id = chunkID(docID, chunk.ChunkIndex)

			if err := wb.Set(makeChunkKey(docID, chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				failures = append(failures, fmt.Errorf("chunk %d: %w", chunk.ChunkIndex, err))
				continue
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(failures) > 0 {
		for _, failure := range failures {
			r.logger.Warn("skipped chunk", "err", failure)
		}
		return written, fmt.Errorf("%w: %d chunks: %w", storage.ErrPartialWrite, len(failures), errors.Join(failures...))
	}
	return written, nil
}

// GetChunks retrieves chunks by ID. The chunk ID alone does not locate the record,
// so this scans the chunk prefix once and picks out the requested IDs.
func (r *ChunkRepository) GetChunks(ctx context.Context, ids ...core.ID) ([]*core.ChunkWithEmbedding, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	wanted := make(map[core.ID]int, len(ids))
	for i, id := range ids {
		wanted[id] = i
	}
	found := make([]*core.ChunkWithEmbedding, len(ids))

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		remaining := len(wanted)
		for iter.Rewind(); iter.Valid() && remaining > 0; iter.Next() {
			pos, ok := wanted[chunkIDFromKey(iter.Item().Key())]
			if !ok {
				continue
			}
			err := iter.Item().Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				found[pos] = chunk
				return nil
			})
			if err != nil {
				return err
			}
			remaining--
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Keep the caller's order, drop the misses.
	result := make([]*core.ChunkWithEmbedding, 0, len(ids))
	for _, chunk := range found {
		if chunk != nil {
			result = append(result, chunk)
		}
	}
	return result, nil
}

// ForEachChunk visits stored chunks in key order, batchSize at a time.
// Each page is read in its own transaction, which is closed before fn runs.
func (r *ChunkRepository) ForEachChunk(ctx context.Context, batchSize int, fn func(batch []*core.ChunkWithEmbedding) error) error {
	if batchSize <= 0 {
		batchSize = defaultChunkPageSize
	}

	var lastKey []byte
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, nextKey, err := r.readPage(lastKey, batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		lastKey = nextKey
	}
}

// readPage reads up to limit chunks with keys strictly after afterKey.
// Returns the chunks and the key of the last one read.
func (r *ChunkRepository) readPage(afterKey []byte, limit int) ([]*core.ChunkWithEmbedding, []byte, error) {
	var batch []*core.ChunkWithEmbedding
	var lastKey []byte

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		if afterKey == nil {
			iter.Rewind()
		} else {
			iter.Seek(afterKey)
			if iter.Valid() && bytes.Equal(iter.Item().Key(), afterKey) {
				iter.Next()
			}
		}

		for ; iter.Valid() && len(batch) < limit; iter.Next() {
			item := iter.Item()
			var chunk *core.ChunkWithEmbedding
			err := item.Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			batch = append(batch, chunk)
			lastKey = item.KeyCopy(nil)
		}
		return nil
	}, false)

	return batch, lastKey, err
}

// UpdateChunks overwrites existing chunk records.
func (r *ChunkRepository) UpdateChunks(ctx context.Context, chunks ...*core.ChunkWithEmbedding) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if err := core.ValidateChunkWithEmbedding(chunk); err != nil {
				return err
			}
			key := makeChunkKey(chunk.DocumentId, chunk.Id)
			if _, err := tx.Get(key); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("chunk %d: %w", chunk.Id, storage.ErrNotFound)
				}
				return err
			}
			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// CountChunks returns the number of stored chunks.
func (r *ChunkRepository) CountChunks(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}
