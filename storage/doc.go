// Package storage provides the storage abstraction layer for specindex.
//
// The package defines repository interfaces that decouple the ingestion and
// search code from the storage engine, plus the record serializers shared by
// every backend. The BadgerDB implementation lives in storage/badger.
//
// # Repositories
//
//   - SpecRepository: documents, divisions, sections, subsections and pay items
//   - ChunkRepository: embedded chunks and filtered similarity search
//   - QueryLogRepository: the analytics log of retrieval requests
//
// # Partial writes
//
// Batch inserts never abort a whole ingestion run because one entity is bad.
// Entities that fail validation, or whose owning section was not stored, are
// skipped and reported through an error wrapping ErrPartialWrite while the
// remaining entities are written:
//
//	ids, err := repo.InsertSections(ctx, doc.Id, divisionIDs, sections)
//	if err != nil && !errors.Is(err, storage.ErrPartialWrite) {
//	    return err
//	}
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
