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


package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/specindex/core"
	"github.com/poiesic/specindex/storage"
)

// SpecRepository implements storage.SpecRepository for BadgerDB.
type SpecRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
	logger  *slog.Logger
}

var _ storage.SpecRepository = (*SpecRepository)(nil)

// NewSpecRepository creates a new SpecRepository.
func NewSpecRepository(backend *Backend) (*SpecRepository, error) {
	idSeq, err := backend.GetSequence(documentIDSeq)
	if err != nil {
		return nil, err
	}

	return &SpecRepository{
		backend: backend,
		idSeq:   idSeq,
		logger:  backend.logger.With("repository", "spec"),
	}, nil
}

// Close releases the ID sequence.
func (r *SpecRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *SpecRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// InsertDocument stores a new document version.
func (r *SpecRepository) InsertDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		doc.Id = core.ID(nextID)
		if doc.InsertedAt.IsZero() {
			doc.InsertedAt = time.Now().UTC()
		}
		if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDocument overwrites an existing document record.
func (r *SpecRepository) UpdateDocument(ctx context.Context, doc *core.Document) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.Id)
		old, err := readDocument(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}
		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a document by ID.
func (r *SpecRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments returns all documents ordered by ID.
func (r *SpecRepository) ListDocuments(ctx context.Context) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var doc *core.Document
			err := iter.Item().Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, doc)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Decimal keys sort lexically, so order by ID here.
	slices.SortFunc(results, func(a, b *core.Document) int {
		switch {
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		}
		return 0
	})
	return results, nil
}

// LatestDocument returns the most recently inserted document.
func (r *SpecRepository) LatestDocument(ctx context.Context) (*core.Document, error) {
	docs, err := r.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, storage.ErrNotFound
	}
	return docs[len(docs)-1], nil
}

// InsertDivisions stores divisions for a document.
func (r *SpecRepository) InsertDivisions(ctx context.Context, docID core.ID, divisions []*core.Division) (map[int]core.ID, error) {
	ids := make(map[int]core.ID, len(divisions))
	var failures []error

	err := r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, division := range divisions {
			if division == nil {
				failures = append(failures, errors.New("nil division"))
				continue
			}
			if division.Number < 100 || division.Number > 900 || division.Number%100 != 0 {
				failures = append(failures, fmt.Errorf("division %d: invalid number", division.Number))
				continue
			}
			division.Id = divisionID(docID, division.Number)
			division.DocumentId = docID
			if err := wb.Set(makeDivisionKey(docID, division.Id), storage.MarshalDivision(division)); err != nil {
				failures = append(failures, fmt.Errorf("division %d: %w", division.Number, err))
				continue
			}
			ids[division.Number] = division.Id
		}
		return nil
	})
	if err != nil {
		return map[int]core.ID{}, err
	}
	return ids, r.partial("divisions", failures)
}

// InsertSections stores sections for a document, linking each to its division.
func (r *SpecRepository) InsertSections(ctx context.Context, docID core.ID, divisionIDs map[int]core.ID, sections []*core.Section) (map[string]core.ID, error) {
	ids := make(map[string]core.ID, len(sections))
	var failures []error

	err := r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, section := range sections {
			if err := core.ValidateSection(section); err != nil {
				failures = append(failures, err)
				continue
			}
			if _, dup := ids[section.SectionNumber]; dup {
				failures = append(failures, fmt.Errorf("section %s: duplicate number", section.SectionNumber))
				continue
			}
			section.Id = sectionID(docID, section.SectionNumber)
			section.DocumentId = docID
			section.DivisionId = divisionIDs[section.DivisionNumber]

			if err := wb.Set(makeSectionKey(docID, section.Id), storage.MarshalSection(section)); err != nil {
				failures = append(failures, fmt.Errorf("section %s: %w", section.SectionNumber, err))
				continue
			}
			if err := wb.Set(makeSectionNumberKey(section.SectionNumber, docID), storage.MarshalID(section.Id)); err != nil {
				failures = append(failures, fmt.Errorf("section %s index: %w", section.SectionNumber, err))
				continue
			}
			ids[section.SectionNumber] = section.Id
		}
		return nil
	})
	if err != nil {
		return map[string]core.ID{}, err
	}
	return ids, r.partial("sections", failures)
}

// InsertSubsections stores subsections in two passes. The first pass writes every
// subsection whose section was stored; the second links each one to its parent
// when the parent was stored in the first pass.
func (r *SpecRepository) InsertSubsections(ctx context.Context, sectionIDs map[string]core.ID, subsections []*core.Subsection) (map[string]core.ID, error) {
	ids := make(map[string]core.ID, len(subsections))
	stored := make([]*core.Subsection, 0, len(subsections))
	var failures []error

	err := r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, sub := range subsections {
			if err := core.ValidateSubsection(sub); err != nil {
				failures = append(failures, err)
				continue
			}
			secID, ok := sectionIDs[sub.SectionNumber]
			if !ok {
				failures = append(failures, fmt.Errorf("subsection %s: %w", sub.SubsectionNumber, storage.ErrMissingSection))
				continue
			}
			sub.SectionId = secID
			sub.Id = subsectionID(secID, sub.SubsectionNumber)
			sub.ParentId = 0
			if err := wb.Set(makeSubsectionKey(secID, sub.Id), storage.MarshalSubsection(sub)); err != nil {
				failures = append(failures, fmt.Errorf("subsection %s: %w", sub.SubsectionNumber, err))
				continue
			}
			ids[sub.SubsectionNumber] = sub.Id
			stored = append(stored, sub)
		}
		return nil
	})
	if err != nil {
		return map[string]core.ID{}, err
	}

	err = r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, sub := range stored {
			if sub.ParentSubsection == "" {
				continue
			}
			parentID, ok := ids[sub.ParentSubsection]
			if !ok {
				r.logger.Debug("parent subsection not stored", "subsection", sub.SubsectionNumber, "parent", sub.ParentSubsection)
				continue
			}
			sub.ParentId = parentID
			if err := wb.Set(makeSubsectionKey(sub.SectionId, sub.Id), storage.MarshalSubsection(sub)); err != nil {
				failures = append(failures, fmt.Errorf("subsection %s parent link: %w", sub.SubsectionNumber, err))
			}
		}
		return nil
	})
	if err != nil {
		// Records from the first pass are stored; only parent links are missing.
		failures = append(failures, fmt.Errorf("linking parents: %w", err))
	}

	return ids, r.partial("subsections", failures)
}

// InsertPayItemLinks stores pay items whose section was stored.
func (r *SpecRepository) InsertPayItemLinks(ctx context.Context, docID core.ID, sectionIDs map[string]core.ID, items []*core.PayItem) (int, error) {
	written := 0
	orphaned := 0
	var failures []error

	err := r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, item := range items {
			if err := core.ValidatePayItem(item); err != nil {
				failures = append(failures, err)
				continue
			}
			if _, ok := sectionIDs[item.SectionNumber]; !ok {
				orphaned++
				continue
			}
			if err := wb.Set(makePayItemKey(docID, item.ItemNumber), storage.MarshalPayItem(item)); err != nil {
				failures = append(failures, fmt.Errorf("pay item %s: %w", item.ItemNumber, err))
				continue
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if orphaned > 0 {
		r.logger.Debug("pay items without a stored section", "count", orphaned)
	}
	return written, r.partial("pay items", failures)
}

// ResolveSectionIDs maps section numbers to the IDs of every stored section with that number.
func (r *SpecRepository) ResolveSectionIDs(ctx context.Context, numbers ...string) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, number := range numbers {
			number = strings.TrimSpace(number)
			if number == "" {
				continue
			}
			opts := badger.DefaultIteratorOptions
			opts.Prefix = makePartialSectionNumberKey(number)
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)
			for iter.Rewind(); iter.Valid(); iter.Next() {
				var id core.ID
				err := iter.Item().Value(func(val []byte) error {
					var err error
					id, err = storage.UnmarshalID(val)
					return err
				})
				if err != nil {
					iter.Close()
					return err
				}
				ids = append(ids, id)
			}
			iter.Close()
		}
		return nil
	}, false)
	return ids, err
}

// GetSection retrieves a section of a document by its number.
func (r *SpecRepository) GetSection(ctx context.Context, docID core.ID, number string) (*core.Section, error) {
	var result *core.Section
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readSection(tx, makeSectionKey(docID, sectionID(docID, number)))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetSections returns all sections of a document ordered by section number.
func (r *SpecRepository) GetSections(ctx context.Context, docID core.ID) ([]*core.Section, error) {
	var results []*core.Section
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeScopePrefix(sectionPrefix, docID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var section *core.Section
			err := iter.Item().Value(func(val []byte) error {
				var err error
				section, err = storage.UnmarshalSection(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, section)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Section) int {
		return strings.Compare(a.SectionNumber, b.SectionNumber)
	})
	return results, nil
}

// GetSubsections returns the subsections of a section ordered by number.
func (r *SpecRepository) GetSubsections(ctx context.Context, sectionID core.ID) ([]*core.Subsection, error) {
	var results []*core.Subsection
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeScopePrefix(subsectionPrefix, sectionID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var sub *core.Subsection
			err := iter.Item().Value(func(val []byte) error {
				var err error
				sub, err = storage.UnmarshalSubsection(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, sub)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b *core.Subsection) int {
		return compareNumbers(a.SubsectionNumber, b.SubsectionNumber)
	})
	return results, nil
}

// GetPayItem retrieves a pay item of a document by its code.
func (r *SpecRepository) GetPayItem(ctx context.Context, docID core.ID, code string) (*core.PayItem, error) {
	var result *core.PayItem
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePayItemKey(docID, code))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalPayItem(val)
			return err
		})
	}, false)
	return result, err
}

// partial logs skipped entities and folds them into one error wrapping ErrPartialWrite.
func (r *SpecRepository) partial(kind string, failures []error) error {
	if len(failures) == 0 {
		return nil
	}
	for _, failure := range failures {
		r.logger.Warn("skipped entity", "kind", kind, "err", failure)
	}
	return fmt.Errorf("%w: %d %s: %w", storage.ErrPartialWrite, len(failures), kind, errors.Join(failures...))
}

// Helper functions

// readDocument reads a document from the transaction.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// readSection reads a section from the transaction.
func readSection(tx *badger.Txn, key []byte) (*core.Section, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var section *core.Section
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		section, unmarshalErr = storage.UnmarshalSection(val)
		return unmarshalErr
	})
	return section, err
}

// compareNumbers orders dotted numbers component-wise so 624.10 sorts after 624.9.
func compareNumbers(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if len(as[i]) != len(bs[i]) {
			return len(as[i]) - len(bs[i])
		}
		if c := strings.Compare(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return len(as) - len(bs)
}
