package badger

import (
	"context"
	"testing"

	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBookRepo(t *testing.T) (storage.BookRepository, *Backend) {
	t.Helper()

	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	repo, err := NewBookRepository(backend)
	require.NoError(t, err)

	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo, backend
}

func TestBookRepository_AddAndGet(t *testing.T) {
	repo, _ := newTestBookRepo(t)
	ctx := context.Background()

	book := &core.BookRecord{
		SourceId:   "gutenberg:2701",
		Title:      "Moby Dick; or The Whale",
		Vector:     []float32{0.6, 0.8},
		TextLength: 1256034,
	}

	added, err := repo.AddBooks(ctx, book)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.NotZero(t, added[0].Id)
	assert.False(t, added[0].InsertedAt.IsZero())

	got, err := repo.GetBook(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, "Moby Dick; or The Whale", got.Title)
	assert.Equal(t, []float32{0.6, 0.8}, got.Vector)
}

func TestBookRepository_AddIsIdempotentPerSource(t *testing.T) {
	repo, _ := newTestBookRepo(t)
	ctx := context.Background()

	first := &core.BookRecord{SourceId: "gutenberg:11", Title: "Alice's Adventures in Wonderland"}
	_, err := repo.AddBooks(ctx, first)
	require.NoError(t, err)

	// Re-adding the same source overwrites, not duplicates
	second := &core.BookRecord{SourceId: "gutenberg:11", Title: "Alice's Adventures in Wonderland (rev)"}
	_, err = repo.AddBooks(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)

	count, err := repo.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := repo.GetBookBySource(ctx, "gutenberg:11")
	require.NoError(t, err)
	assert.Equal(t, "Alice's Adventures in Wonderland (rev)", got.Title)
}

func TestBookRepository_GetMissing(t *testing.T) {
	repo, _ := newTestBookRepo(t)
	ctx := context.Background()

	_, err := repo.GetBook(ctx, 12345)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.GetBookBySource(ctx, "gutenberg:0")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBookRepository_Update(t *testing.T) {
	repo, _ := newTestBookRepo(t)
	ctx := context.Background()

	book := &core.BookRecord{SourceId: "gutenberg:84", Title: "Frankenstein"}
	added, err := repo.AddBooks(ctx, book)
	require.NoError(t, err)

	added[0].Vector = []float32{1, 0, 0}
	_, err = repo.UpdateBooks(ctx, added[0])
	require.NoError(t, err)

	got, err := repo.GetBook(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, got.Vector)
	assert.True(t, got.UpdatedAt.After(got.InsertedAt) || got.UpdatedAt.Equal(got.InsertedAt))
}

func TestBookRepository_UpdateMissing(t *testing.T) {
	repo, _ := newTestBookRepo(t)
	ctx := context.Background()

	_, err := repo.UpdateBooks(ctx, &core.BookRecord{Id: 999, SourceId: "x", Title: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBookRepository_Delete(t *testing.T) {
	repo, _ := newTestBookRepo(t)
	ctx := context.Background()

	book := &core.BookRecord{SourceId: "gutenberg:1342", Title: "Pride and Prejudice"}
	added, err := repo.AddBooks(ctx, book)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteBooks(ctx, added[0].Id))

	_, err = repo.GetBook(ctx, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.GetBookBySource(ctx, "gutenberg:1342")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBookRepository_FindSimilar(t *testing.T) {
	repo, _ := newTestBookRepo(t)
	ctx := context.Background()

	books := []*core.BookRecord{
		{SourceId: "a", Title: "Sea Voyages", Vector: []float32{1, 0, 0}},
		{SourceId: "b", Title: "Ocean Tales", Vector: []float32{0.9, 0.4359, 0}},
		{SourceId: "c", Title: "Gardening", Vector: []float32{0, 0, 1}},
		{SourceId: "d", Title: "Unembedded", Vector: nil},
	}
	_, err := repo.AddBooks(ctx, books...)
	require.NoError(t, err)

	matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, books[0].Id, matches[0].RecordId)
	assert.InDelta(t, 1.0, float64(matches[0].Score), 1e-6)
	assert.Equal(t, books[1].Id, matches[1].RecordId)

	// Limit applies after sorting
	matches, err = repo.FindSimilar(ctx, []float32{1, 0, 0}, -1, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, books[0].Id, matches[0].RecordId)
}

func TestBookRepository_FindSimilar_DimensionMismatch(t *testing.T) {
	repo, _ := newTestBookRepo(t)
	ctx := context.Background()

	_, err := repo.AddBooks(ctx, &core.BookRecord{SourceId: "a", Title: "A", Vector: []float32{1, 0, 0}})
	require.NoError(t, err)

	_, err = repo.FindSimilar(ctx, []float32{1, 0}, 0, 10)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestBookRepository_Counts(t *testing.T) {
	repo, _ := newTestBookRepo(t)
	ctx := context.Background()

	_, err := repo.AddBooks(ctx,
		&core.BookRecord{SourceId: "a", Title: "A", Vector: []float32{1, 0}},
		&core.BookRecord{SourceId: "b", Title: "B"},
	)
	require.NoError(t, err)

	total, err := repo.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	embedded, err := repo.CountEmbedded(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, embedded)
}

func TestBookRepository_GetAllBooks_Deterministic(t *testing.T) {
	repo, _ := newTestBookRepo(t)
	ctx := context.Background()

	_, err := repo.AddBooks(ctx,
		&core.BookRecord{SourceId: "a", Title: "A"},
		&core.BookRecord{SourceId: "b", Title: "B"},
		&core.BookRecord{SourceId: "c", Title: "C"},
	)
	require.NoError(t, err)

	first, err := repo.GetAllBooks(ctx)
	require.NoError(t, err)
	second, err := repo.GetAllBooks(ctx)
	require.NoError(t, err)

	require.Len(t, first, 3)
	for i := range first {
		assert.Equal(t, first[i].Id, second[i].Id)
	}
}
