package badger

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
)

// BookRepository implements storage.BookRepository for BadgerDB.
type BookRepository struct {
	backend *Backend
}

var _ storage.BookRepository = (*BookRepository)(nil)

// NewBookRepository creates a new BookRepository.
func NewBookRepository(backend *Backend) (*BookRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}
	return &BookRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources beyond the backend.
func (r *BookRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *BookRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddBooks adds one or more book records to storage.
// IDs are derived from the SourceId so re-importing the same book
// overwrites the existing record instead of duplicating it.
func (r *BookRepository) AddBooks(ctx context.Context, records ...*core.BookRecord) ([]*core.BookRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if err := core.ValidateBookRecord(record); err != nil {
				return err
			}

			record.Id = core.IDFromContent(record.SourceId)
			record.InsertedAt = time.Now().UTC()
			record.UpdatedAt = record.InsertedAt

			key := makeBookKey(record.Id)
			value := storage.MarshalBookRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Source index
			sourceKey := makeBookSourceKey(record.SourceId)
			if err := tx.Set(sourceKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// UpdateBooks updates existing book records.
func (r *BookRepository) UpdateBooks(ctx context.Context, records ...*core.BookRecord) ([]*core.BookRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makeBookKey(record.Id)

			old, err := r.readBook(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			record.UpdatedAt = time.Now().UTC()

			value := storage.MarshalBookRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update source index if the source id changed
			if old.SourceId != record.SourceId {
				if err := tx.Delete(makeBookSourceKey(old.SourceId)); err != nil {
					return err
				}
				if err := tx.Set(makeBookSourceKey(record.SourceId), storage.MarshalID(record.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// DeleteBooks removes book records by their IDs.
func (r *BookRepository) DeleteBooks(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeBookKey(id)

			record, err := r.readBook(tx, key)
			if err != nil {
				return err
			}
			if record == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
			if err := tx.Delete(makeBookSourceKey(record.SourceId)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetBook retrieves a single book record by ID.
func (r *BookRepository) GetBook(ctx context.Context, id core.ID) (*core.BookRecord, error) {
	var record *core.BookRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		record, err = r.readBook(tx, makeBookKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

// GetBookBySource retrieves a book record by its upstream platform identifier.
func (r *BookRepository) GetBookBySource(ctx context.Context, sourceId string) (*core.BookRecord, error) {
	var record *core.BookRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBookSourceKey(sourceId))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		var id core.ID
		err = item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		record, err = r.readBook(tx, makeBookKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, storage.ErrNotFound
	}
	return record, nil
}

// GetAllBooks retrieves all book records in key order.
func (r *BookRepository) GetAllBooks(ctx context.Context) ([]*core.BookRecord, error) {
	var records []*core.BookRecord
	err := r.forEachBook(func(record *core.BookRecord) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// FindSimilar finds books whose vectors are similar to the given vector.
// Stored vectors are unit-length, so the dot product equals cosine similarity.
func (r *BookRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error) {
	var matches []*core.SimilarityMatch

	err := r.forEachBook(func(record *core.BookRecord) error {
		// Skip records without embeddings
		if len(record.Vector) == 0 {
			return nil
		}

		if len(record.Vector) != len(vector) {
			return fmt.Errorf("%w: query %d, record %d (%d)",
				storage.ErrDimensionMismatch, len(vector), len(record.Vector), record.Id)
		}

		similarity := dotProduct(vector, record.Vector)
		if similarity >= minSimilarity {
			matches = append(matches, &core.SimilarityMatch{
				RecordId: record.Id,
				Score:    similarity,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending; stable so key order breaks exact ties
	slices.SortStableFunc(matches, func(a, b *core.SimilarityMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// CountBooks returns the total number of book records.
func (r *BookRepository) CountBooks(ctx context.Context) (int, error) {
	count := 0
	err := r.forEachBook(func(*core.BookRecord) error {
		count++
		return nil
	})
	return count, err
}

// CountEmbedded returns the number of book records with a non-empty vector.
func (r *BookRepository) CountEmbedded(ctx context.Context) (int, error) {
	count := 0
	err := r.forEachBook(func(record *core.BookRecord) error {
		if len(record.Vector) > 0 {
			count++
		}
		return nil
	})
	return count, err
}

// forEachBook iterates over all book records in key order.
func (r *BookRepository) forEachBook(fn func(*core.BookRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			var record *core.BookRecord
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalBookRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readBook reads a book record by key within a transaction.
// Returns nil (no error) when the key does not exist.
func (r *BookRepository) readBook(tx *badger.Txn, key []byte) (*core.BookRecord, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record *core.BookRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalBookRecord(val)
		return err
	})
	return record, err
}
