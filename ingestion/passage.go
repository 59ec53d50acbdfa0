package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/gutensearch/ai"
	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
)

// passageProcessor chunks book text into passages and embeds each one.
type passageProcessor struct {
	passageRepository storage.PassageRepository
	embedder          ai.Embedder
	chunkTokens       int
	overlapTokens     int
	logger            *slog.Logger
}

var _ processor = (*passageProcessor)(nil)

// newPassageProcessor creates a new passage processor.
func newPassageProcessor(
	passageRepository storage.PassageRepository,
	embedder ai.Embedder,
	chunkTokens, overlapTokens int,
	logger *slog.Logger,
) (processor, error) {
	if passageRepository == nil {
		return nil, ErrPassageRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &passageProcessor{
		passageRepository: passageRepository,
		embedder:          embedder,
		chunkTokens:       chunkTokens,
		overlapTokens:     overlapTokens,
		logger:            logger.With("processor", "passages"),
	}, nil
}

// process chunks each book's text into passages, embeds them in one
// batch per book, and stores the results. Re-processing a book replaces
// its previous passages. A failing book is skipped with a warning; the
// rest of the batch continues.
func (pp *passageProcessor) process(ctx context.Context, items ...*bookText) error {
	pp.logger.Info("processing books for passages", "books", len(items))

	for _, item := range items {
		if err := pp.processBook(ctx, item); err != nil {
			pp.logger.Warn("failed to process passages for book, skipping",
				"bookId", item.id, "err", err)
		}
	}

	return nil
}

func (pp *passageProcessor) processBook(ctx context.Context, item *bookText) error {
	chunks := chunkText(item.contents, pp.chunkTokens, pp.overlapTokens)
	if len(chunks) == 0 {
		pp.logger.Debug("no passages produced for book", "bookId", item.id)
		return nil
	}

	embeddings, err := pp.embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		return err
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(chunks), len(embeddings))
	}

	// Replace any passages from a previous ingest of this book
	if err := pp.passageRepository.DeletePassagesByBook(ctx, item.id); err != nil {
		return err
	}

	passages := make([]*core.PassageRecord, len(chunks))
	for i, chunk := range chunks {
		passages[i] = &core.PassageRecord{
			BookId:   item.id,
			Position: i,
			Contents: chunk,
			Vector:   core.NormalizeVector(embeddings[i]),
		}
	}

	added, err := pp.passageRepository.AddPassages(ctx, passages...)
	if err != nil {
		return err
	}

	pp.logger.Debug("stored passages for book", "bookId", item.id, "passages", len(added))
	return nil
}
