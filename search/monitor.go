package search

import (
	"github.com/poiesic/gutensearch/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterParse(parsed *core.ParsedQuery)
	AfterQueryEmbedding(dimensions int, cached bool)
	AfterSemanticScan(matches []*core.SimilarityMatch)
	PassageBoosted(bookId core.ID, before, after float32)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) AfterParse(_ *core.ParsedQuery)             {}
func (n *noopMonitor) AfterQueryEmbedding(_ int, _ bool)          {}
func (n *noopMonitor) AfterSemanticScan(_ []*core.SimilarityMatch) {}
func (n *noopMonitor) PassageBoosted(_ core.ID, _, _ float32)     {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)              {}
