package storage

import (
	"context"

	"github.com/poiesic/gutensearch/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// BookRepository provides operations for managing book records and
// scanning them by vector similarity.
type BookRepository interface {
	Repository

	// AddBooks adds one or more book records to storage.
	// IDs are derived from each record's SourceId via content hashing.
	// Sets InsertedAt/UpdatedAt timestamps.
	// Returns the records with IDs and timestamps populated.
	AddBooks(ctx context.Context, records ...*core.BookRecord) ([]*core.BookRecord, error)

	// UpdateBooks updates existing book records.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if any record doesn't exist.
	UpdateBooks(ctx context.Context, records ...*core.BookRecord) ([]*core.BookRecord, error)

	// DeleteBooks removes book records by their IDs.
	// Returns ErrNotFound if any record doesn't exist.
	DeleteBooks(ctx context.Context, ids ...core.ID) error

	// GetBook retrieves a single book record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetBook(ctx context.Context, id core.ID) (*core.BookRecord, error)

	// GetBookBySource retrieves a book record by its upstream platform identifier.
	// Returns ErrNotFound if the record doesn't exist.
	GetBookBySource(ctx context.Context, sourceId string) (*core.BookRecord, error)

	// GetAllBooks retrieves all book records in key order.
	// The ordering is deterministic across calls for a fixed store.
	GetAllBooks(ctx context.Context) ([]*core.BookRecord, error)

	// FindSimilar finds books whose vectors are similar to the given vector.
	// Returns records with similarity >= minSimilarity, up to limit results,
	// ordered by similarity score (highest first). Records without vectors
	// are skipped. Returns ErrDimensionMismatch if a stored vector has a
	// different dimensionality than the query vector.
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SimilarityMatch, error)

	// CountBooks returns the total number of book records.
	CountBooks(ctx context.Context) (int, error)

	// CountEmbedded returns the number of book records with a non-empty vector.
	CountEmbedded(ctx context.Context) (int, error)
}

// PassageRepository provides operations for managing passage records.
type PassageRepository interface {
	Repository

	// AddPassages adds one or more passage records to storage.
	// For records with ID=0, generates new IDs from sequence.
	// Sets InsertedAt/UpdatedAt timestamps.
	AddPassages(ctx context.Context, records ...*core.PassageRecord) ([]*core.PassageRecord, error)

	// UpdatePassages updates existing passage records.
	// Returns ErrNotFound if any record doesn't exist.
	UpdatePassages(ctx context.Context, records ...*core.PassageRecord) ([]*core.PassageRecord, error)

	// DeletePassagesByBook removes all passages belonging to a book.
	DeletePassagesByBook(ctx context.Context, bookId core.ID) error

	// GetPassagesByBook retrieves all passages for a book, ordered by position.
	GetPassagesByBook(ctx context.Context, bookId core.ID) ([]*core.PassageRecord, error)

	// GetAllPassages retrieves all passage records in key order.
	GetAllPassages(ctx context.Context) ([]*core.PassageRecord, error)

	// BestMatchForBook returns the highest cosine similarity between the
	// query vector and the book's passage vectors. Returns found=false when
	// the book has no embedded passages.
	BestMatchForBook(ctx context.Context, bookId core.ID, vector []float32) (score float32, found bool, err error)

	// CountPassages returns the total number of passage records.
	CountPassages(ctx context.Context) (int, error)
}

// MetaRepository stores corpus-level metadata used by status reporting
// and by importers to detect model or dimension changes.
type MetaRepository interface {
	// GetStoreInfo retrieves the current store metadata.
	// Returns a zero-value StoreInfo when none has been saved yet.
	GetStoreInfo(ctx context.Context) (*StoreInfo, error)

	// SetStoreInfo persists the store metadata.
	SetStoreInfo(ctx context.Context, info *StoreInfo) error
}

// StoreInfo describes the embedding corpus currently held in the store.
type StoreInfo struct {
	EmbeddingModel string
	Dimensions     int
}
