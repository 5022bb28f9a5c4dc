package storage

import (
	"context"

	"github.com/poiesic/specindex/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// SpecRepository stores the structural entities of imported specification documents.
//
// The batch insert methods tolerate per-entity failures: entities that cannot be
// written are logged and skipped, the returned map holds only the entities that
// were stored, and the returned error (wrapping ErrPartialWrite) describes the
// entities that were skipped.
type SpecRepository interface {
	Repository

	// InsertDocument stores a new document version and assigns its ID and InsertedAt.
	InsertDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// UpdateDocument overwrites an existing document record.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) error

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// ListDocuments returns all documents ordered by ID.
	ListDocuments(ctx context.Context) ([]*core.Document, error)

	// LatestDocument returns the most recently inserted document.
	// Returns ErrNotFound if no document has been imported.
	LatestDocument(ctx context.Context) (*core.Document, error)

	// InsertDivisions stores divisions for a document.
	// Returns division number -> stored ID.
	InsertDivisions(ctx context.Context, docID core.ID, divisions []*core.Division) (map[int]core.ID, error)

	// InsertSections stores sections for a document, linking each to its division.
	// Returns section number -> stored ID.
	InsertSections(ctx context.Context, docID core.ID, divisionIDs map[int]core.ID, sections []*core.Section) (map[string]core.ID, error)

	// InsertSubsections stores subsections in two passes: records first, then parent links
	// resolved from the IDs of the first pass. Subsections whose section was not stored are skipped.
	// Returns subsection number -> stored ID.
	InsertSubsections(ctx context.Context, sectionIDs map[string]core.ID, subsections []*core.Subsection) (map[string]core.ID, error)

	// InsertPayItemLinks stores pay items whose section was stored.
	// Returns the number of pay items written.
	InsertPayItemLinks(ctx context.Context, docID core.ID, sectionIDs map[string]core.ID, items []*core.PayItem) (int, error)

	// ResolveSectionIDs maps section numbers to the IDs of every stored section with that number.
	// Unknown numbers are ignored.
	ResolveSectionIDs(ctx context.Context, numbers ...string) ([]core.ID, error)

	// GetSection retrieves a section of a document by its number.
	// Returns ErrNotFound if the section doesn't exist.
	GetSection(ctx context.Context, docID core.ID, number string) (*core.Section, error)

	// GetSections returns all sections of a document ordered by section number.
	GetSections(ctx context.Context, docID core.ID) ([]*core.Section, error)

	// GetSubsections returns the subsections of a section ordered by number.
	GetSubsections(ctx context.Context, sectionID core.ID) ([]*core.Subsection, error)

	// GetPayItem retrieves a pay item of a document by its six-digit code.
	// Returns ErrNotFound if the pay item doesn't exist.
	GetPayItem(ctx context.Context, docID core.ID, code string) (*core.PayItem, error)
}

// ChunkRepository stores embedded chunks and answers similarity queries over them.
type ChunkRepository interface {
	Repository

	// InsertChunks stores embedded chunks for a document. Chunks whose section was not
	// stored are skipped. Returns the number of chunks written.
	InsertChunks(ctx context.Context, docID core.ID, sectionIDs, subsectionIDs map[string]core.ID, chunks []*core.ChunkWithEmbedding) (int, error)

	// Search returns the chunks most similar to embedding with similarity >= threshold,
	// ordered by similarity (highest first) and capped at k.
	Search(ctx context.Context, embedding []float32, threshold float32, k int, filters core.SearchFilters) ([]*core.ChunkMatch, error)

	// GetChunks retrieves chunks by ID. Missing chunks are omitted.
	GetChunks(ctx context.Context, ids ...core.ID) ([]*core.ChunkWithEmbedding, error)

	// ForEachChunk visits stored chunks in key order, batchSize at a time.
	// fn runs outside any open transaction, so it may write to the repository.
	// Iteration stops at the first error returned by fn.
	ForEachChunk(ctx context.Context, batchSize int, fn func(batch []*core.ChunkWithEmbedding) error) error

	// UpdateChunks overwrites existing chunk records.
	// Returns ErrNotFound if any chunk doesn't exist.
	UpdateChunks(ctx context.Context, chunks ...*core.ChunkWithEmbedding) error

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}

// QueryLogRepository records retrieval requests for analytics.
type QueryLogRepository interface {
	Repository

	// LogQuery stores a query log entry. A zero Id or Timestamp is filled in.
	LogQuery(ctx context.Context, entry *core.QueryLog) error

	// RecentQueries returns up to limit entries, most recent first.
	RecentQueries(ctx context.Context, limit int) ([]*core.QueryLog, error)
}
