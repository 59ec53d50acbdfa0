package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/gutensearch/ai"
	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
)

// embedTextLimit caps the characters of book text fed to the embedder
// alongside the title.
const embedTextLimit = 2000

// embeddingProcessor generates book-level embeddings.
type embeddingProcessor struct {
	bookRepository storage.BookRepository
	metaRepository storage.MetaRepository
	embedder       ai.Embedder
	modelName      string
	logger         *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(
	bookRepository storage.BookRepository,
	metaRepository storage.MetaRepository,
	embedder ai.Embedder,
	modelName string,
	logger *slog.Logger,
) (processor, error) {
	if bookRepository == nil {
		return nil, ErrBookRepositoryRequired
	}
	if metaRepository == nil {
		return nil, ErrMetaRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		bookRepository: bookRepository,
		metaRepository: metaRepository,
		embedder:       embedder,
		modelName:      modelName,
		logger:         logger.With("processor", "embeddings"),
	}, nil
}

// process generates embeddings for the specified books. Each book's
// vector is computed from its title and the opening of its text, then
// normalized so the store's dot-product scan equals cosine similarity.
func (ep *embeddingProcessor) process(ctx context.Context, items ...*bookText) error {
	ep.logger.Info("processing books for embeddings", "books", len(items))

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = embeddingInput(item.title, item.contents)
	}

	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(embeddings) != len(items) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(items), len(embeddings))
	}

	records := make([]*core.BookRecord, 0, len(items))
	for i, item := range items {
		record, err := ep.bookRepository.GetBook(ctx, item.id)
		if err != nil {
			ep.logger.Warn("failed to load book for embedding, skipping",
				"bookId", item.id, "err", err)
			continue
		}
		if record == nil {
			continue
		}
		record.Vector = core.NormalizeVector(embeddings[i])
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil
	}

	if _, err := ep.bookRepository.UpdateBooks(ctx, records...); err != nil {
		return err
	}

	return ep.recordStoreInfo(ctx, len(records[0].Vector))
}

// recordStoreInfo persists the embedding model and dimensionality once,
// so dimension mismatches on later imports surface as fatal errors.
func (ep *embeddingProcessor) recordStoreInfo(ctx context.Context, dimensions int) error {
	info, err := ep.metaRepository.GetStoreInfo(ctx)
	if err != nil {
		return err
	}
	if info != nil && info.Dimensions > 0 {
		return nil
	}
	return ep.metaRepository.SetStoreInfo(ctx, &storage.StoreInfo{
		EmbeddingModel: ep.modelName,
		Dimensions:     dimensions,
	})
}

// embeddingInput builds the embedder input from a book's title and the
// opening of its text.
func embeddingInput(title, contents string) string {
	excerpt := strings.TrimSpace(contents)
	if len(excerpt) > embedTextLimit {
		excerpt = excerpt[:embedTextLimit]
	}
	if title == "" {
		return excerpt
	}
	return title + "\n\n" + excerpt
}
