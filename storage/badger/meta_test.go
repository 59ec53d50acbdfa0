package badger

import (
	"context"
	"testing"

	"github.com/poiesic/gutensearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetaRepo(t *testing.T) storage.MetaRepository {
	t.Helper()

	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	return NewMetaRepository(backend)
}

func TestMetaRepository_StoreInfo(t *testing.T) {
	repo := newTestMetaRepo(t)
	ctx := context.Background()

	t.Run("empty store returns zero value", func(t *testing.T) {
		info, err := repo.GetStoreInfo(ctx)
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Empty(t, info.EmbeddingModel)
		assert.Zero(t, info.Dimensions)
	})

	t.Run("set and get round trip", func(t *testing.T) {
		err := repo.SetStoreInfo(ctx, &storage.StoreInfo{
			EmbeddingModel: "embeddinggemma",
			Dimensions:     384,
		})
		require.NoError(t, err)

		info, err := repo.GetStoreInfo(ctx)
		require.NoError(t, err)
		assert.Equal(t, "embeddinggemma", info.EmbeddingModel)
		assert.Equal(t, 384, info.Dimensions)
	})

	t.Run("set overwrites previous value", func(t *testing.T) {
		err := repo.SetStoreInfo(ctx, &storage.StoreInfo{
			EmbeddingModel: "embeddinggemma-v2",
			Dimensions:     768,
		})
		require.NoError(t, err)

		info, err := repo.GetStoreInfo(ctx)
		require.NoError(t, err)
		assert.Equal(t, "embeddinggemma-v2", info.EmbeddingModel)
		assert.Equal(t, 768, info.Dimensions)
	})
}
