package badger

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
)

// PassageRepository implements storage.PassageRepository for BadgerDB.
type PassageRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.PassageRepository = (*PassageRepository)(nil)

// NewPassageRepository creates a new PassageRepository.
func NewPassageRepository(backend *Backend) (*PassageRepository, error) {
	idSeq, err := backend.GetSequence(passageIDSeq)
	if err != nil {
		return nil, err
	}

	return &PassageRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *PassageRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *PassageRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddPassages adds one or more passage records to storage.
func (r *PassageRepository) AddPassages(ctx context.Context, records ...*core.PassageRecord) ([]*core.PassageRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if err := core.ValidatePassageRecord(record); err != nil {
				return err
			}

			if record.Id == 0 {
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
				record.Id = core.ID(nextID)
			}

			record.InsertedAt = time.Now().UTC()
			record.UpdatedAt = record.InsertedAt

			key := makePassageKey(record.Id)
			value := storage.MarshalPassageRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Book index
			bookKey := makePassageBookKey(record.BookId, record.Position, record.Id)
			if err := tx.Set(bookKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// UpdatePassages updates existing passage records.
func (r *PassageRepository) UpdatePassages(ctx context.Context, records ...*core.PassageRecord) ([]*core.PassageRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			key := makePassageKey(record.Id)

			old, err := r.readPassage(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			record.UpdatedAt = time.Now().UTC()

			value := storage.MarshalPassageRecord(record)
			if err := tx.Set(key, value); err != nil {
				return err
			}

			// Update book index if the position or parent changed
			if old.BookId != record.BookId || old.Position != record.Position {
				oldKey := makePassageBookKey(old.BookId, old.Position, old.Id)
				if err := tx.Delete(oldKey); err != nil {
					return err
				}
				newKey := makePassageBookKey(record.BookId, record.Position, record.Id)
				if err := tx.Set(newKey, storage.MarshalID(record.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// DeletePassagesByBook removes all passages belonging to a book.
func (r *PassageRepository) DeletePassagesByBook(ctx context.Context, bookId core.ID) error {
	passages, err := r.GetPassagesByBook(ctx, bookId)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, passage := range passages {
			if err := tx.Delete(makePassageKey(passage.Id)); err != nil {
				return err
			}
			bookKey := makePassageBookKey(passage.BookId, passage.Position, passage.Id)
			if err := tx.Delete(bookKey); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetPassagesByBook retrieves all passages for a book, ordered by position.
func (r *PassageRepository) GetPassagesByBook(ctx context.Context, bookId core.ID) ([]*core.PassageRecord, error) {
	var records []*core.PassageRecord

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialPassageBookKey(bookId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			})
			if err != nil {
				return err
			}

			record, err := r.readPassage(tx, makePassageKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				records = append(records, record)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return records, nil
}

// GetAllPassages retrieves all passage records in key order.
func (r *PassageRepository) GetAllPassages(ctx context.Context) ([]*core.PassageRecord, error) {
	var records []*core.PassageRecord
	err := r.forEachPassage(func(record *core.PassageRecord) error {
		records = append(records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// BestMatchForBook returns the highest cosine similarity between the query
// vector and the book's passage vectors. Passages without embeddings are
// skipped; found is false when no embedded passage exists for the book.
func (r *PassageRepository) BestMatchForBook(ctx context.Context, bookId core.ID, vector []float32) (float32, bool, error) {
	passages, err := r.GetPassagesByBook(ctx, bookId)
	if err != nil {
		return 0, false, err
	}

	var best float32
	found := false
	for _, passage := range passages {
		if len(passage.Vector) == 0 {
			continue
		}
		if len(passage.Vector) != len(vector) {
			return 0, false, fmt.Errorf("%w: query %d, passage %d (%d)",
				storage.ErrDimensionMismatch, len(vector), len(passage.Vector), passage.Id)
		}

		score := dotProduct(vector, passage.Vector)
		if !found || score > best {
			best = score
			found = true
		}
	}

	return best, found, nil
}

// CountPassages returns the total number of passage records.
func (r *PassageRepository) CountPassages(ctx context.Context) (int, error) {
	count := 0
	err := r.forEachPassage(func(*core.PassageRecord) error {
		count++
		return nil
	})
	return count, err
}

// forEachPassage iterates over all passage records in key order.
func (r *PassageRepository) forEachPassage(fn func(*core.PassageRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(passageRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			// Skip the sequence key, which shares the record prefix
			if bytes.Equal(item.Key(), []byte(passageIDSeq)) {
				continue
			}

			var record *core.PassageRecord
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalPassageRecord(val)
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

// readPassage reads a passage record by key within a transaction.
// Returns nil (no error) when the key does not exist.
func (r *PassageRepository) readPassage(tx *badger.Txn, key []byte) (*core.PassageRecord, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record *core.PassageRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalPassageRecord(val)
		return err
	})
	return record, err
}
