package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
	"github.com/poiesic/gutensearch/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addTestBooks(t *testing.T, repo storage.BookRepository, count int) {
	t.Helper()
	records := make([]*core.BookRecord, count)
	for i := 0; i < count; i++ {
		records[i] = &core.BookRecord{
			SourceId: fmt.Sprintf("pg-%d", i),
			Title:    fmt.Sprintf("Book %d", i),
			Vector:   []float32{1, 0, 0},
		}
	}
	_, err := repo.AddBooks(context.Background(), records...)
	require.NoError(t, err)
}

func TestBookIterator_ForEach(t *testing.T) {
	bookRepo, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		iterator := NewBookIterator(bookRepo, 10)
		calls := 0
		err := iterator.ForEach(ctx, func([]*core.BookRecord) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Zero(t, calls)
	})

	addTestBooks(t, bookRepo, 25)

	t.Run("batches respect the batch size", func(t *testing.T) {
		iterator := NewBookIterator(bookRepo, 10)

		var sizes []int
		seen := 0
		err := iterator.ForEach(ctx, func(records []*core.BookRecord) error {
			sizes = append(sizes, len(records))
			seen += len(records)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []int{10, 10, 5}, sizes)
		assert.Equal(t, 25, seen)
	})

	t.Run("fn error stops iteration", func(t *testing.T) {
		iterator := NewBookIterator(bookRepo, 10)

		boom := errors.New("boom")
		calls := 0
		err := iterator.ForEach(ctx, func([]*core.BookRecord) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context stops between batches", func(t *testing.T) {
		iterator := NewBookIterator(bookRepo, 10)

		cancelCtx, cancel := context.WithCancel(ctx)
		calls := 0
		err := iterator.ForEach(cancelCtx, func([]*core.BookRecord) error {
			calls++
			cancel()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("invalid batch size uses the default", func(t *testing.T) {
		iterator := NewBookIterator(bookRepo, 0)
		assert.Equal(t, DefaultBatchSize, iterator.batchSize)
	})
}

func TestPassageIterator_ForEach(t *testing.T) {
	bookRepo, passageRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	added, err := bookRepo.AddBooks(ctx, &core.BookRecord{
		SourceId: "pg-1", Title: "Chunked Book", Vector: []float32{1, 0, 0},
	})
	require.NoError(t, err)

	passages := make([]*core.PassageRecord, 7)
	for i := range passages {
		passages[i] = &core.PassageRecord{
			BookId:   added[0].Id,
			Position: i,
			Contents: fmt.Sprintf("passage number %d", i),
			Vector:   []float32{0, 1, 0},
		}
	}
	_, err = passageRepo.AddPassages(ctx, passages...)
	require.NoError(t, err)

	iterator := NewPassageIterator(passageRepo, 3)

	var sizes []int
	seen := 0
	err = iterator.ForEach(ctx, func(records []*core.PassageRecord) error {
		sizes = append(sizes, len(records))
		seen += len(records)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)
	assert.Equal(t, 7, seen)
}
