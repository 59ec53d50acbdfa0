package gutensearch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/gutensearch/ai/mock"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	library, err := NewLibrary("", WithInMemoryStore(), WithProvider(mock.NewMockProvider()))
	require.NoError(t, err)
	t.Cleanup(func() { library.Close() })
	return library
}

func TestNewLibrary(t *testing.T) {
	t.Run("create new library on disk", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_store")
		library, err := NewLibrary(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, library)
		defer library.Close()

		assert.NotNil(t, library.BookRepository())
		assert.NotNil(t, library.PassageRepository())
		assert.NotNil(t, library.MetaRepository())
		assert.NotNil(t, library.Provider())
		assert.NotNil(t, library.backend)
	})

	t.Run("in-memory store", func(t *testing.T) {
		library, err := NewLibrary("", WithInMemoryStore())
		require.NoError(t, err)
		require.NotNil(t, library)
		assert.NoError(t, library.Close())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		library, err := NewLibrary(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, library)
	})

	t.Run("injected provider", func(t *testing.T) {
		provider := mock.NewMockProvider()
		library, err := NewLibrary("", WithInMemoryStore(), WithProvider(provider))
		require.NoError(t, err)
		defer library.Close()

		assert.Same(t, provider, library.Provider())
	})
}

func TestLibrary_FactoryMethods(t *testing.T) {
	library := newTestLibrary(t)

	t.Run("can create searcher", func(t *testing.T) {
		searcher, err := library.NewSearcher()
		require.NoError(t, err)
		assert.NotNil(t, searcher)
	})

	t.Run("can create ingestion pipeline", func(t *testing.T) {
		pipeline, err := library.NewIngestionPipeline()
		require.NoError(t, err)
		assert.NotNil(t, pipeline)
		pipeline.Release()
	})

	t.Run("can create server", func(t *testing.T) {
		searcher, err := library.NewSearcher()
		require.NoError(t, err)

		srv, err := library.NewServer(searcher)
		require.NoError(t, err)
		assert.NotNil(t, srv)
	})

	t.Run("can create reembedders", func(t *testing.T) {
		assert.NotNil(t, library.NewReembedder(nil, os.Stderr))
		assert.NotNil(t, library.NewPassageReembedder(nil, os.Stderr))
	})
}
