package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCollection lays out a dataDir with paired metadata and text files.
func writeCollection(t *testing.T, books map[string]*BookMetadata, texts map[string]string) string {
	t.Helper()
	dataDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "metadata"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "books"), 0o755))

	for name, book := range books {
		raw, err := json.Marshal(book)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(
			filepath.Join(dataDir, "metadata", name+".json"), raw, 0o644))
	}
	for name, text := range texts {
		require.NoError(t, os.WriteFile(
			filepath.Join(dataDir, "books", name+".txt"), []byte(text), 0o644))
	}
	return dataDir
}

func TestNewUploader(t *testing.T) {
	t.Run("missing client", func(t *testing.T) {
		_, err := NewUploader(nil)
		assert.ErrorIs(t, err, ErrClientRequired)
	})

	t.Run("valid", func(t *testing.T) {
		rs := newRecordsServer(t, "tok")
		uploader, err := NewUploader(newTestClient(t, rs, "tok"))
		require.NoError(t, err)
		assert.NotNil(t, uploader)
	})
}

func TestUploader_UploadAll(t *testing.T) {
	rs := newRecordsServer(t, "tok")
	uploader, err := NewUploader(newTestClient(t, rs, "tok"))
	require.NoError(t, err)

	dataDir := writeCollection(t,
		map[string]*BookMetadata{
			"pg84":   {Id: 84, Title: "Frankenstein", Authors: []Author{{Name: "Shelley, Mary"}}},
			"pg2701": {Id: 2701, Title: "Moby Dick", Authors: []Author{{Name: "Melville, Herman"}}},
		},
		map[string]string{
			"pg84":   "it was on a dreary night of november",
			"pg2701": "call me ishmael",
		})

	summary, err := uploader.UploadAll(context.Background(), dataDir, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Successful)
	assert.Empty(t, summary.Failed)
	assert.Equal(t, 2, rs.publishedCount())
}

func TestUploader_UploadAll_SkipsBrokenBooks(t *testing.T) {
	rs := newRecordsServer(t, "tok")
	uploader, err := NewUploader(newTestClient(t, rs, "tok"))
	require.NoError(t, err)

	// pg100 has metadata but no text file, pg84 is complete.
	dataDir := writeCollection(t,
		map[string]*BookMetadata{
			"pg100": {Id: 100, Title: "Complete Works"},
			"pg84":  {Id: 84, Title: "Frankenstein"},
		},
		map[string]string{
			"pg84": "it was on a dreary night of november",
		})

	summary, err := uploader.UploadAll(context.Background(), dataDir, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, []string{"pg100"}, summary.Failed)
	assert.Equal(t, 1, rs.publishedCount())
}

func TestUploader_UploadAll_HonorsLimit(t *testing.T) {
	rs := newRecordsServer(t, "tok")
	uploader, err := NewUploader(newTestClient(t, rs, "tok"))
	require.NoError(t, err)

	dataDir := writeCollection(t,
		map[string]*BookMetadata{
			"pg1": {Id: 1, Title: "One"},
			"pg2": {Id: 2, Title: "Two"},
			"pg3": {Id: 3, Title: "Three"},
		},
		map[string]string{"pg1": "one", "pg2": "two", "pg3": "three"})

	summary, err := uploader.UploadAll(context.Background(), dataDir, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Successful)
}

func TestUploader_UploadAll_EmptyCollection(t *testing.T) {
	rs := newRecordsServer(t, "tok")
	uploader, err := NewUploader(newTestClient(t, rs, "tok"))
	require.NoError(t, err)

	_, err = uploader.UploadAll(context.Background(), t.TempDir(), 0)
	assert.Error(t, err)
}

func TestUploader_UploadAll_StopsOnCancelledContext(t *testing.T) {
	rs := newRecordsServer(t, "tok")
	uploader, err := NewUploader(newTestClient(t, rs, "tok"))
	require.NoError(t, err)

	dataDir := writeCollection(t,
		map[string]*BookMetadata{"pg1": {Id: 1, Title: "One"}},
		map[string]string{"pg1": "one"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := uploader.UploadAll(ctx, dataDir, 0)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Successful)
}
