package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/gutensearch/ai"
	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
)

// Pipeline orchestrates the ingestion and processing of books.
// It manages concurrent generation of book embeddings and passage
// extraction.
type Pipeline struct {
	bookRepository    storage.BookRepository
	passageRepository storage.PassageRepository
	metaRepository    storage.MetaRepository
	embeddingPool     *ants.Pool
	passagePool       *ants.Pool
	embeddingProc     processor
	passageProc       processor
	modelName         string
	chunkTokens       int
	overlapTokens     int
	pending           sync.WaitGroup
	logger            *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pools
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		if p.passagePool != nil {
			p.passagePool.Release()
		}

		// Create new pools
		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		passagePool, err := ants.NewPool(size)
		if err != nil {
			embeddingPool.Release()
			return err
		}

		p.embeddingPool = embeddingPool
		p.passagePool = passagePool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithModelName records the embedding model name in the store metadata.
func WithModelName(name string) Option {
	return func(p *Pipeline) error {
		p.modelName = name
		return nil
	}
}

// WithChunkSize sets the passage chunking bounds in estimated tokens.
// Defaults are 400 with an overlap of 80.
func WithChunkSize(chunkTokens, overlapTokens int) Option {
	return func(p *Pipeline) error {
		if chunkTokens < 1 {
			chunkTokens = defaultChunkTokens
		}
		if overlapTokens < 0 || overlapTokens >= chunkTokens {
			overlapTokens = defaultOverlapTokens
		}
		p.chunkTokens = chunkTokens
		p.overlapTokens = overlapTokens
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	bookRepository storage.BookRepository,
	passageRepository storage.PassageRepository,
	metaRepository storage.MetaRepository,
	provider ai.Provider,
	opts ...Option,
) (*Pipeline, error) {
	if bookRepository == nil {
		return nil, ErrBookRepositoryRequired
	}
	if passageRepository == nil {
		return nil, ErrPassageRepositoryRequired
	}
	if metaRepository == nil {
		return nil, ErrMetaRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	passagePool, err := ants.NewPool(poolSize)
	if err != nil {
		embeddingPool.Release()
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		bookRepository:    bookRepository,
		passageRepository: passageRepository,
		metaRepository:    metaRepository,
		embeddingPool:     embeddingPool,
		passagePool:       passagePool,
		chunkTokens:       defaultChunkTokens,
		overlapTokens:     defaultOverlapTokens,
		logger:            slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create processors after options are applied (so they get final config)
	embeddingProc, err := newEmbeddingProcessor(bookRepository, metaRepository,
		provider.Embedder(), p.modelName, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	passageProc, err := newPassageProcessor(passageRepository, provider.Embedder(),
		p.chunkTokens, p.overlapTokens, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	p.embeddingProc = embeddingProc
	p.passageProc = passageProc

	return p, nil
}

// BookSource is a book submitted for ingestion.
type BookSource struct {
	SourceId string
	Title    string
	Contents string
	Metadata map[string]string
}

// Ingest stores books and processes them asynchronously. Processing
// generates book embeddings and chunks text into embedded passages.
// Books with blank contents or missing identifiers are skipped with a
// warning rather than failing the batch; errors during async processing
// are logged but do not fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, sources ...*BookSource) ([]*core.BookRecord, error) {
	records := make([]*core.BookRecord, 0, len(sources))
	contents := make([]string, 0, len(sources))

	for _, source := range sources {
		if strings.TrimSpace(source.Contents) == "" {
			p.logger.Warn("skipping book with empty contents", "sourceId", source.SourceId)
			continue
		}

		record := &core.BookRecord{
			SourceId:   source.SourceId,
			Title:      source.Title,
			TextLength: len(source.Contents),
			Metadata:   source.Metadata,
		}
		if err := core.ValidateBookRecord(record); err != nil {
			p.logger.Warn("skipping invalid book",
				"sourceId", source.SourceId, "title", source.Title, "err", err)
			continue
		}

		records = append(records, record)
		contents = append(contents, source.Contents)
	}

	if len(records) == 0 {
		return nil, nil
	}

	added, err := p.bookRepository.AddBooks(ctx, records...)
	if err != nil {
		return nil, err
	}

	items := make([]*bookText, len(added))
	for i, record := range added {
		items[i] = &bookText{
			id:       record.Id,
			title:    record.Title,
			contents: contents[i],
		}
	}

	// Submit for async processing
	p.pending.Add(2)
	if err := p.embeddingPool.Submit(func() {
		defer p.pending.Done()
		if err := p.embeddingProc.process(context.Background(), items...); err != nil {
			p.logger.Error("error processing embeddings", "err", err)
		}
	}); err != nil {
		p.pending.Done()
		p.logger.Error("error submitting embedding work", "err", err)
	}

	if err := p.passagePool.Submit(func() {
		defer p.pending.Done()
		if err := p.passageProc.process(context.Background(), items...); err != nil {
			p.logger.Error("error processing passages", "err", err)
		}
	}); err != nil {
		p.pending.Done()
		p.logger.Error("error submitting passage work", "err", err)
	}

	return added, nil
}

// Wait blocks until all submitted processing has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
	if p.passagePool != nil {
		p.passagePool.Release()
	}
}
