package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/poiesic/gutensearch/ai"
	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
)

// sourceTextLimit caps the characters of rebuilt text fed to the
// embedder per book.
const sourceTextLimit = 2000

// BookBatchProcessor regenerates embeddings for batches of books.
// Book text is rebuilt from the title and the opening passages, since
// full book contents are not stored wholesale.
type BookBatchProcessor struct {
	bookRepo    storage.BookRepository
	passageRepo storage.PassageRepository
	embedder    ai.Embedder
	maxAttempts uint
	logger      *slog.Logger
}

// NewBookBatchProcessor creates a new book batch processor.
// maxAttempts: maximum number of attempts for embedding API calls
func NewBookBatchProcessor(
	bookRepo storage.BookRepository,
	passageRepo storage.PassageRepository,
	embedder ai.Embedder,
	maxAttempts uint,
) *BookBatchProcessor {
	return &BookBatchProcessor{
		bookRepo:    bookRepo,
		passageRepo: passageRepo,
		embedder:    embedder,
		maxAttempts: maxAttempts,
		logger:      slog.Default().With("component", "reembed-books"),
	}
}

// Process regenerates embeddings for a batch of books and updates them
// in the store. Vectors are normalized after embedding so the store's
// dot-product scan remains a cosine similarity.
func (bp *BookBatchProcessor) Process(ctx context.Context, records []*core.BookRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		text, err := bp.sourceText(ctx, record)
		if err != nil {
			return err
		}
		texts[i] = text
	}

	// Generate embeddings with retry
	var embeddings [][]float32
	err := retry.Do(
		func() error {
			var err error
			embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(bp.maxAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			bp.logger.Warn("retrying book embedding batch",
				"attempt", n+1, "maxAttempts", bp.maxAttempts, "err", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.maxAttempts, err)
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(records), len(embeddings))
	}

	// Normalize vectors and assign to records
	for i := range records {
		records[i].Vector = core.NormalizeVector(embeddings[i])
	}

	if _, err := bp.bookRepo.UpdateBooks(ctx, records...); err != nil {
		return fmt.Errorf("failed to update records: %w", err)
	}

	return nil
}

// sourceText rebuilds the embedder input for a book from its title and
// stored passages.
func (bp *BookBatchProcessor) sourceText(ctx context.Context, record *core.BookRecord) (string, error) {
	passages, err := bp.passageRepo.GetPassagesByBook(ctx, record.Id)
	if err != nil {
		return "", fmt.Errorf("failed to load passages for %d: %w", record.Id, err)
	}

	var sb strings.Builder
	sb.WriteString(record.Title)
	for _, passage := range passages {
		if sb.Len() >= sourceTextLimit {
			break
		}
		sb.WriteString("\n\n")
		sb.WriteString(passage.Contents)
	}

	text := sb.String()
	if len(text) > sourceTextLimit {
		text = text[:sourceTextLimit]
	}
	return text, nil
}

// PassageBatchProcessor regenerates embeddings for batches of passages
// from their stored contents.
type PassageBatchProcessor struct {
	passageRepo storage.PassageRepository
	embedder    ai.Embedder
	maxAttempts uint
	logger      *slog.Logger
}

// NewPassageBatchProcessor creates a new passage batch processor.
func NewPassageBatchProcessor(
	passageRepo storage.PassageRepository,
	embedder ai.Embedder,
	maxAttempts uint,
) *PassageBatchProcessor {
	return &PassageBatchProcessor{
		passageRepo: passageRepo,
		embedder:    embedder,
		maxAttempts: maxAttempts,
		logger:      slog.Default().With("component", "reembed-passages"),
	}
}

// Process regenerates embeddings for a batch of passages and updates
// them in the store.
func (pp *PassageBatchProcessor) Process(ctx context.Context, records []*core.PassageRecord) error {
	if len(records) == 0 {
		return nil
	}

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Contents
	}

	var embeddings [][]float32
	err := retry.Do(
		func() error {
			var err error
			embeddings, err = pp.embedder.EmbedTexts(ctx, texts)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(pp.maxAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			pp.logger.Warn("retrying passage embedding batch",
				"attempt", n+1, "maxAttempts", pp.maxAttempts, "err", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", pp.maxAttempts, err)
	}

	if len(embeddings) != len(records) {
		return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(records), len(embeddings))
	}

	for i := range records {
		records[i].Vector = core.NormalizeVector(embeddings[i])
	}

	if _, err := pp.passageRepo.UpdatePassages(ctx, records...); err != nil {
		return fmt.Errorf("failed to update records: %w", err)
	}

	return nil
}
