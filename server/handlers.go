// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/search"
)

// searchResponse is the payload for one ranked search result.
type searchResponse struct {
	Id            string            `json:"id"`
	SourceId      string            `json:"source_id"`
	Title         string            `json:"title"`
	SemanticScore float32           `json:"semantic_score"`
	MetadataScore float32           `json:"metadata_score"`
	HybridScore   float32           `json:"hybrid_score"`
	BookScore     float32           `json:"book_score,omitempty"`
	PassageBoost  float32           `json:"passage_boost,omitempty"`
	Summary       string            `json:"summary,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// statusResponse reports store readiness and sizing.
type statusResponse struct {
	Ready          bool   `json:"ready"`
	Books          int    `json:"books"`
	EmbeddedBooks  int    `json:"embedded_books"`
	Passages       int    `json:"passages"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	Dimensions     int    `json:"dimensions,omitempty"`
}

func (s *Server) handleSearch(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		failure(c, http.StatusBadRequest, "empty_query", "query parameter q is required")
		return
	}

	opts := search.Options{
		Summaries:    parseBool(c.Query("summaries")),
		PassageBoost: parseBool(c.Query("passages")),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			failure(c, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		opts.Limit = limit
	}

	results, err := s.searcher.SearchWithOptions(c.Request.Context(), query, opts)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			failure(c, http.StatusBadRequest, "empty_query", "query parameter q is required")
			return
		}
		s.logger.Error("search failed", "query", query, "error", err)
		failure(c, http.StatusInternalServerError, "search_failed", "search failed")
		return
	}

	payload := make([]*searchResponse, 0, len(results))
	for _, result := range results {
		payload = append(payload, toSearchResponse(result))
	}
	success(c, payload)
}

func (s *Server) handleStatus(c *gin.Context) {
	ctx := c.Request.Context()

	books, err := s.bookRepository.CountBooks(ctx)
	if err != nil {
		s.logger.Error("failed to count books", "error", err)
		failure(c, http.StatusInternalServerError, "status_failed", "status unavailable")
		return
	}
	embedded, err := s.bookRepository.CountEmbedded(ctx)
	if err != nil {
		s.logger.Error("failed to count embedded books", "error", err)
		failure(c, http.StatusInternalServerError, "status_failed", "status unavailable")
		return
	}
	passages, err := s.passageRepository.CountPassages(ctx)
	if err != nil {
		s.logger.Error("failed to count passages", "error", err)
		failure(c, http.StatusInternalServerError, "status_failed", "status unavailable")
		return
	}
	info, err := s.metaRepository.GetStoreInfo(ctx)
	if err != nil {
		s.logger.Error("failed to read store info", "error", err)
		failure(c, http.StatusInternalServerError, "status_failed", "status unavailable")
		return
	}

	status := &statusResponse{
		Books:         books,
		EmbeddedBooks: embedded,
		Passages:      passages,
	}
	if info != nil {
		status.EmbeddingModel = info.EmbeddingModel
		status.Dimensions = info.Dimensions
	}
	status.Ready = embedded > 0 && status.Dimensions > 0

	success(c, status)
}

func toSearchResponse(result *core.SearchResult) *searchResponse {
	return &searchResponse{
		Id:            strconv.FormatUint(uint64(result.Book.Id), 10),
		SourceId:      result.Book.SourceId,
		Title:         result.Book.Title,
		SemanticScore: result.SemanticScore,
		MetadataScore: result.MetadataScore,
		HybridScore:   result.HybridScore,
		BookScore:     result.BookScore,
		PassageBoost:  result.PassageBoost,
		Summary:       result.Summary,
		Metadata:      result.Book.Metadata,
	}
}

func parseBool(raw string) bool {
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}
