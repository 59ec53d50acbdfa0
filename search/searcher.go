package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/gutensearch/ai"
	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
)

// defaultQueryCacheSize bounds the number of cached query embeddings.
const defaultQueryCacheSize = 512

// summarySourceLimit caps the amount of passage text fed to the
// summarizer for a single result.
const summarySourceLimit = 4000

// Searcher provides hybrid semantic and metadata search over book records.
type Searcher struct {
	bookRepository    storage.BookRepository
	passageRepository storage.PassageRepository
	embedder          ai.Embedder
	summarizer        ai.Summarizer
	weights           Weights
	passageWeight     float32
	queryCache        *lru.Cache[string, []float32]
	cacheSize         int
	summaryMaxWords   int
	summaryMinWords   int
	logger            *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithWeights sets the semantic/metadata blend weights.
// Default is 0.7/0.3.
func WithWeights(weights Weights) Option {
	return func(s *Searcher) error {
		if err := weights.Validate(); err != nil {
			return err
		}
		s.weights = weights
		return nil
	}
}

// WithPassageWeight sets the weight given to the best passage score when
// boosting. Must be in [0, 1]. Default is DefaultPassageWeight.
func WithPassageWeight(weight float32) Option {
	return func(s *Searcher) error {
		if weight < 0 || weight > 1 {
			return fmt.Errorf("passage weight must be in [0, 1], got %.2f", weight)
		}
		s.passageWeight = weight
		return nil
	}
}

// WithQueryCacheSize sets the capacity of the query embedding cache.
// Default is 512 entries.
func WithQueryCacheSize(size int) Option {
	return func(s *Searcher) error {
		if size < 1 {
			return fmt.Errorf("query cache size must be positive, got %d", size)
		}
		s.cacheSize = size
		return nil
	}
}

// WithSummaryBounds sets the word-length bounds passed to the summarizer.
// Defaults are 50 and 10.
func WithSummaryBounds(maxWords, minWords int) Option {
	return func(s *Searcher) error {
		if maxWords < 1 || minWords < 1 || minWords > maxWords {
			return fmt.Errorf("invalid summary bounds: max %d, min %d", maxWords, minWords)
		}
		s.summaryMaxWords = maxWords
		s.summaryMinWords = minWords
		return nil
	}
}

// NewSearcher creates a new searcher. The AI provider supplies both the
// query embedder and the optional result summarizer.
func NewSearcher(
	bookRepository storage.BookRepository,
	passageRepository storage.PassageRepository,
	provider ai.Provider,
	opts ...Option,
) (*Searcher, error) {
	if bookRepository == nil {
		return nil, ErrBookRepositoryRequired
	}
	if passageRepository == nil {
		return nil, ErrPassageRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		bookRepository:    bookRepository,
		passageRepository: passageRepository,
		embedder:          provider.Embedder(),
		summarizer:        provider.Summarizer(),
		weights:           DefaultWeights(),
		passageWeight:     DefaultPassageWeight,
		cacheSize:         defaultQueryCacheSize,
		summaryMaxWords:   50,
		summaryMinWords:   10,
		logger:            slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	cache, err := lru.New[string, []float32](s.cacheSize)
	if err != nil {
		return nil, err
	}
	s.queryCache = cache

	return s, nil
}

// Options control per-request search behavior.
type Options struct {
	// Limit overrides the parsed result limit when positive.
	Limit int

	// Summaries requests a generated summary for each result.
	Summaries bool

	// PassageBoost blends each book's best passage match into its score.
	PassageBoost bool
}

// Search parses the query and returns ranked results using default options.
func (s *Searcher) Search(ctx context.Context, query string) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, Options{}, nil)
}

// SearchWithOptions parses the query and returns ranked results.
func (s *Searcher) SearchWithOptions(ctx context.Context, query string, opts Options) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, opts, nil)
}

// SearchWithMonitor searches with monitoring. The monitor receives
// callbacks at each stage of the search process.
//
// Ranking is deterministic for a fixed store and query: the store scans
// candidates in key order, both sorts are stable, so exact score ties
// resolve the same way every run.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, opts Options, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	parsed, err := ParseQuery(query)
	if err != nil {
		return nil, err
	}
	monitor.AfterParse(parsed)

	limit := opts.Limit
	if limit <= 0 {
		limit = parsed.Limit
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	// 1. Resolve the query vector. For "similar to" queries the reference
	// book's own vector is used when it can be found; otherwise the
	// semantic query text is embedded.
	var queryVector []float32
	var excludeId core.ID

	if parsed.Intent == core.IntentSimilar {
		reference, err := s.findReferenceBook(ctx, parsed.SemanticQuery)
		if err != nil {
			return nil, err
		}
		if reference != nil && !core.IsZeroVector(reference.Vector) {
			queryVector = reference.Vector
			excludeId = reference.Id
			s.logger.Debug("using reference book vector",
				"bookId", reference.Id, "title", reference.Title)
		}
	}

	cached := false
	if queryVector == nil {
		queryVector, cached, err = s.embedQuery(ctx, parsed.SemanticQuery)
		if err != nil {
			s.logger.Error("error generating embedding for query", "query", query, "err", err)
			return nil, err
		}
	}

	if core.IsZeroVector(queryVector) {
		return nil, fmt.Errorf("query embedding: %w", ErrZeroVector)
	}
	monitor.AfterQueryEmbedding(len(queryVector), cached)

	// 2. Semantic scan over all embedded books. Zero-vector records are
	// excluded by the store; a dimension mismatch is fatal.
	matches, err := s.bookRepository.FindSimilar(ctx, queryVector, -1, 0)
	if err != nil {
		s.logger.Error("error scanning for similar books", "err", err)
		return nil, err
	}
	monitor.AfterSemanticScan(matches)

	// 3. Blend in metadata scores and optional passage boosts
	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		if match.RecordId == excludeId {
			continue
		}

		book, err := s.bookRepository.GetBook(ctx, match.RecordId)
		if err != nil {
			s.logger.Warn("failed to load matched book, skipping",
				"bookId", match.RecordId, "err", err)
			continue
		}
		if book == nil {
			continue
		}

		metadataScore := MetadataScore(book.Title, parsed.SearchTerms)
		hybridScore := s.weights.Hybrid(match.Score, metadataScore)

		result := &core.SearchResult{
			Book:          book,
			SemanticScore: match.Score,
			MetadataScore: metadataScore,
			HybridScore:   hybridScore,
			BookScore:     hybridScore,
		}

		if opts.PassageBoost {
			best, found, err := s.passageRepository.BestMatchForBook(ctx, book.Id, queryVector)
			if err != nil {
				s.logger.Warn("passage boost failed, using book score",
					"bookId", book.Id, "err", err)
			} else if found {
				boosted := BoostScore(hybridScore, best, s.passageWeight)
				if boosted > hybridScore {
					monitor.PassageBoosted(book.Id, hybridScore, boosted)
				}
				result.HybridScore = boosted
				result.PassageBoost = boosted - hybridScore
			}
		}

		results = append(results, result)
	}

	// 4. Rank by hybrid score descending; stable so determinism carries
	// through from the scan order
	slices.SortStableFunc(results, func(a, b *core.SearchResult) int {
		if a.HybridScore > b.HybridScore {
			return -1
		}
		if a.HybridScore < b.HybridScore {
			return 1
		}
		return 0
	})
	if len(results) > limit {
		results = results[:limit]
	}

	// 5. Optional summaries, generated only for the returned page
	if opts.Summaries {
		s.attachSummaries(ctx, results)
	}

	monitor.Finish(results)
	return results, nil
}

// embedQuery returns the embedding for a query string, consulting the
// LRU cache first. Vectors are normalized to unit length so the store's
// dot-product scan yields cosine similarity.
func (s *Searcher) embedQuery(ctx context.Context, text string) ([]float32, bool, error) {
	if vector, ok := s.queryCache.Get(text); ok {
		return vector, true, nil
	}

	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, false, err
	}

	vector = core.NormalizeVector(vector)
	s.queryCache.Add(text, vector)
	return vector, false, nil
}

// findReferenceBook locates the book a "similar to" query refers to.
// A book matches when every content word of the reference appears in its
// title, case-insensitively. The first match in key order wins, so the
// lookup is deterministic. Returns nil when no book matches.
func (s *Searcher) findReferenceBook(ctx context.Context, reference string) (*core.BookRecord, error) {
	needleWords := contentWords(reference)
	if len(needleWords) == 0 {
		return nil, nil
	}

	books, err := s.bookRepository.GetAllBooks(ctx)
	if err != nil {
		return nil, err
	}

	for _, book := range books {
		title := strings.ToLower(book.Title)
		matched := true
		for _, word := range needleWords {
			if !strings.Contains(title, word) {
				matched = false
				break
			}
		}
		if matched {
			return book, nil
		}
	}

	return nil, nil
}

// attachSummaries generates a summary for each result from its passage
// text. Failures are logged and the result is returned without a
// summary; a missing summary never fails the search.
func (s *Searcher) attachSummaries(ctx context.Context, results []*core.SearchResult) {
	for _, result := range results {
		passages, err := s.passageRepository.GetPassagesByBook(ctx, result.Book.Id)
		if err != nil {
			s.logger.Warn("failed to load passages for summary",
				"bookId", result.Book.Id, "err", err)
			continue
		}
		if len(passages) == 0 {
			continue
		}

		var source strings.Builder
		for _, passage := range passages {
			if source.Len() >= summarySourceLimit {
				break
			}
			if source.Len() > 0 {
				source.WriteString("\n\n")
			}
			source.WriteString(passage.Contents)
		}

		summary, err := s.summarizer.Summarize(ctx, source.String(), s.summaryMaxWords, s.summaryMinWords)
		if err != nil {
			s.logger.Warn("failed to generate summary, skipping",
				"bookId", result.Book.Id, "err", err)
			continue
		}
		result.Summary = summary
	}
}
