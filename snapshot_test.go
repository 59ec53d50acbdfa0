package gutensearch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/gutensearch/storage"
)

func writeSnapshot(t *testing.T, entries map[string]*SnapshotEntry) string {
	t.Helper()
	raw, err := json.Marshal(entries)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "embeddings.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestLibrary_ImportSnapshot(t *testing.T) {
	t.Run("imports new books", func(t *testing.T) {
		library := newTestLibrary(t)
		path := writeSnapshot(t, map[string]*SnapshotEntry{
			"84":   {Embedding: []float32{3, 4, 0}, Title: "Frankenstein", TextLength: 420000},
			"2701": {Embedding: []float32{0, 1, 0}, Title: "Moby Dick", TextLength: 1200000},
		})

		summary, err := library.ImportSnapshot(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.Imported)
		assert.Equal(t, 0, summary.Updated)
		assert.Equal(t, 0, summary.Skipped)
		assert.Equal(t, 3, summary.Dimensions)

		book, err := library.BookRepository().GetBookBySource(context.Background(), "84")
		require.NoError(t, err)
		require.NotNil(t, book)
		assert.Equal(t, "Frankenstein", book.Title)
		assert.Equal(t, 420000, book.TextLength)
		// Vectors are normalized on import.
		assert.InDelta(t, 0.6, book.Vector[0], 1e-6)
		assert.InDelta(t, 0.8, book.Vector[1], 1e-6)

		info, err := library.MetaRepository().GetStoreInfo(context.Background())
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.Equal(t, 3, info.Dimensions)
	})

	t.Run("updates existing books by source id", func(t *testing.T) {
		library := newTestLibrary(t)
		first := writeSnapshot(t, map[string]*SnapshotEntry{
			"84": {Embedding: []float32{1, 0, 0}, Title: "Frankenstein", TextLength: 100},
		})
		_, err := library.ImportSnapshot(context.Background(), first)
		require.NoError(t, err)

		second := writeSnapshot(t, map[string]*SnapshotEntry{
			"84": {Embedding: []float32{0, 1, 0}, Title: "Frankenstein; Or, The Modern Prometheus", TextLength: 420000},
		})
		summary, err := library.ImportSnapshot(context.Background(), second)
		require.NoError(t, err)
		assert.Equal(t, 0, summary.Imported)
		assert.Equal(t, 1, summary.Updated)

		books, err := library.BookRepository().GetAllBooks(context.Background())
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, "Frankenstein; Or, The Modern Prometheus", books[0].Title)
		assert.Equal(t, float32(1), books[0].Vector[1])
	})

	t.Run("skips entries with empty embeddings", func(t *testing.T) {
		library := newTestLibrary(t)
		path := writeSnapshot(t, map[string]*SnapshotEntry{
			"1": {Embedding: []float32{1, 0, 0}, Title: "Embedded"},
			"2": {Embedding: nil, Title: "No Vector"},
			"3": {Embedding: []float32{0, 0, 0}, Title: "Zero Vector"},
		})

		summary, err := library.ImportSnapshot(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Imported)
		assert.Equal(t, 2, summary.Skipped)
	})

	t.Run("dimension mismatch within snapshot is fatal", func(t *testing.T) {
		library := newTestLibrary(t)
		path := writeSnapshot(t, map[string]*SnapshotEntry{
			"1": {Embedding: []float32{1, 0, 0}, Title: "Three"},
			"2": {Embedding: []float32{1, 0}, Title: "Two"},
		})

		_, err := library.ImportSnapshot(context.Background(), path)
		assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
	})

	t.Run("dimension mismatch against store is fatal", func(t *testing.T) {
		library := newTestLibrary(t)
		err := library.MetaRepository().SetStoreInfo(context.Background(), &storage.StoreInfo{
			EmbeddingModel: "embeddinggemma",
			Dimensions:     384,
		})
		require.NoError(t, err)

		path := writeSnapshot(t, map[string]*SnapshotEntry{
			"1": {Embedding: []float32{1, 0, 0}, Title: "Three"},
		})

		_, err = library.ImportSnapshot(context.Background(), path)
		assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
	})

	t.Run("missing file", func(t *testing.T) {
		library := newTestLibrary(t)
		_, err := library.ImportSnapshot(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		library := newTestLibrary(t)
		path := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

		_, err := library.ImportSnapshot(context.Background(), path)
		assert.Error(t, err)
	})
}
