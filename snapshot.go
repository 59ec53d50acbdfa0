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

package gutensearch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
)

// SnapshotEntry is one book in an embedding snapshot file. The file is
// a JSON object mapping source identifiers to entries.
type SnapshotEntry struct {
	Embedding  []float32 `json:"embedding"`
	Title      string    `json:"title"`
	TextLength int       `json:"text_length"`
}

// SnapshotSummary reports the outcome of a snapshot import.
type SnapshotSummary struct {
	Imported   int
	Updated    int
	Skipped    int
	Dimensions int
}

// ImportSnapshot reads an embedding snapshot file and loads its books
// into the store. Existing books with the same source id are updated in
// place. Entries whose embedding is missing or all zeros are skipped
// with a warning; an entry whose dimensionality disagrees with the rest
// of the snapshot is a fatal error.
func (l *Library) ImportSnapshot(ctx context.Context, path string) (*SnapshotSummary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var entries map[string]*SnapshotEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	info, err := l.metaRepo.GetStoreInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read store info: %w", err)
	}

	expectedDims := 0
	if info != nil {
		expectedDims = info.Dimensions
	}

	sourceIds := make([]string, 0, len(entries))
	for sourceId := range entries {
		sourceIds = append(sourceIds, sourceId)
	}
	sort.Strings(sourceIds)

	summary := &SnapshotSummary{}
	for _, sourceId := range sourceIds {
		entry := entries[sourceId]

		if core.IsZeroVector(entry.Embedding) {
			l.logger.Warn("skipping snapshot entry with empty embedding",
				"sourceId", sourceId, "title", entry.Title)
			summary.Skipped++
			continue
		}

		if expectedDims == 0 {
			expectedDims = len(entry.Embedding)
		} else if len(entry.Embedding) != expectedDims {
			return nil, fmt.Errorf("%w: entry %s has %d dimensions, expected %d",
				storage.ErrDimensionMismatch, sourceId, len(entry.Embedding), expectedDims)
		}
		summary.Dimensions = expectedDims

		record := &core.BookRecord{
			SourceId:   sourceId,
			Title:      entry.Title,
			Vector:     core.NormalizeVector(entry.Embedding),
			TextLength: entry.TextLength,
		}

		existing, err := l.bookRepo.GetBookBySource(ctx, sourceId)
		if err != nil {
			return nil, fmt.Errorf("failed to look up book %s: %w", sourceId, err)
		}

		if existing != nil {
			record.Id = existing.Id
			record.InsertedAt = existing.InsertedAt
			record.Metadata = existing.Metadata
			if _, err := l.bookRepo.UpdateBooks(ctx, record); err != nil {
				return nil, fmt.Errorf("failed to update book %s: %w", sourceId, err)
			}
			summary.Updated++
			continue
		}

		if _, err := l.bookRepo.AddBooks(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to add book %s: %w", sourceId, err)
		}
		summary.Imported++
	}

	if summary.Dimensions > 0 && (info == nil || info.Dimensions == 0) {
		model := ""
		if info != nil {
			model = info.EmbeddingModel
		}
		err = l.metaRepo.SetStoreInfo(ctx, &storage.StoreInfo{
			EmbeddingModel: model,
			Dimensions:     summary.Dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record store info: %w", err)
		}
	}

	l.logger.Info("snapshot imported",
		"path", path,
		"imported", summary.Imported,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"dimensions", summary.Dimensions)

	return summary, nil
}
