package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// QueryIntent classifies what a parsed query is asking for.
type QueryIntent int

const (
	// IntentSearch represents a general "find me books about X" query.
	IntentSearch QueryIntent = iota + 1
	// IntentSimilar represents a "books similar to X" query.
	IntentSimilar
)

// BookRecord represents one book in the search corpus.
// The vector is populated by the ingestion pipeline or a snapshot import.
type BookRecord struct {
	Id         ID
	SourceId   string // Identifier of the record in the upstream records platform
	Title      string
	Vector     []float32 // Unit-length embedding for semantic search
	TextLength int       // Length of the source text in characters
	InsertedAt time.Time // When the record was inserted into the store
	UpdatedAt  time.Time // When the record was last updated
	Metadata   map[string]string // Optional metadata (e.g., "author", "subjects")
}

// PassageRecord represents one passage of a book's text.
// Passages are used to boost book-level scores with finer-grained matches.
type PassageRecord struct {
	Id         ID
	BookId     ID
	Position   int // Zero-based order of the passage within the book
	Contents   string
	Vector     []float32
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// ParsedQuery is the structured form of a natural language query.
// It is derived once per request and never mutated afterwards.
type ParsedQuery struct {
	Intent        QueryIntent
	Limit         int // 0 means the query did not specify a count
	Attributes    map[string]string
	SearchTerms   []string
	SemanticQuery string
}

// SimilarityMatch represents a book match from vector similarity search.
type SimilarityMatch struct {
	RecordId ID
	Score    float32
}

// SearchResult represents one ranked search result.
//
// HybridScore is the ranking key. When passage boosting is applied,
// BookScore holds the pre-boost semantic score and PassageBoost the
// amount added by the best-matching passage.
type SearchResult struct {
	Book          *BookRecord
	SemanticScore float32
	MetadataScore float32
	HybridScore   float32
	BookScore     float32
	PassageBoost  float32
	Summary       string
}
