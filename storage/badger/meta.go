package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/gutensearch/storage"
)

// MetaRepository implements storage.MetaRepository for BadgerDB.
// It holds a single corpus-level metadata entry.
type MetaRepository struct {
	backend *Backend
}

var _ storage.MetaRepository = (*MetaRepository)(nil)

// NewMetaRepository creates a new MetaRepository.
func NewMetaRepository(backend *Backend) *MetaRepository {
	return &MetaRepository{backend: backend}
}

// GetStoreInfo retrieves the current store metadata.
// Returns a zero-value StoreInfo when none has been saved yet.
func (r *MetaRepository) GetStoreInfo(ctx context.Context) (*storage.StoreInfo, error) {
	info := &storage.StoreInfo{}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(storeInfoKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			model, n, err := ord.String.Unmarshal(val)
			if err != nil {
				return err
			}
			dims, _, err := varint.Int.Unmarshal(val[n:])
			if err != nil {
				return err
			}
			info.EmbeddingModel = model
			info.Dimensions = dims
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return info, nil
}

// SetStoreInfo persists the store metadata.
func (r *MetaRepository) SetStoreInfo(ctx context.Context, info *storage.StoreInfo) error {
	buf := make([]byte, ord.String.Size(info.EmbeddingModel)+varint.Int.Size(info.Dimensions))
	n := ord.String.Marshal(info.EmbeddingModel, buf)
	varint.Int.Marshal(info.Dimensions, buf[n:])

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(storeInfoKey), buf); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
