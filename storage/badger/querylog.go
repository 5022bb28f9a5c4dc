package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/storage"
)

// QueryLogRepository implements storage.QueryLogRepository for BadgerDB.
type QueryLogRepository struct {
	backend *Backend
}

var _ storage.QueryLogRepository = (*QueryLogRepository)(nil)

// NewQueryLogRepository creates a new QueryLogRepository.
func NewQueryLogRepository(backend *Backend) (*QueryLogRepository, error) {
	return &QueryLogRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *QueryLogRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *QueryLogRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// LogQuery stores a query log entry.
func (r *QueryLogRepository) LogQuery(ctx context.Context, entry *core.QueryLog) error {
	if entry.Id == uuid.Nil {
		entry.Id = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if len(entry.TopChunkIds) > 5 {
		entry.TopChunkIds = entry.TopChunkIds[:5]
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeQueryLogKey(entry.Timestamp, entry.Id), storage.MarshalQueryLog(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// RecentQueries returns up to limit entries, most recent first.
func (r *QueryLogRepository) RecentQueries(ctx context.Context, limit int) ([]*core.QueryLog, error) {
	if limit <= 0 {
		return nil, nil
	}

	var results []*core.QueryLog
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		// Use reverse iterator to get most recent entries first
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(queryLogPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek to the last possible key under the prefix
		startKey := append([]byte(queryLogPrefix), 0xFF)

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			var entry *core.QueryLog
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalQueryLog(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, entry)
		}
		return nil
	}, false)

	return results, err
}
