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


package reembed

import (
	"context"
	"fmt"
	"io"

	"time"

	"github.com/poiesic/gutensearch/ai"
	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
)

// elapsedRounding is the precision used when printing elapsed time.
const elapsedRounding = time.Second

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// MaxAttempts is the maximum number of attempts for failed embedding calls
	MaxAttempts uint

	// ModelName is recorded in the store metadata after a successful run
	ModelName string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxAttempts:    3,
	}
}

// Reembedder orchestrates the reembedding of all books in a store.
type Reembedder struct {
	bookRepo  storage.BookRepository
	metaRepo  storage.MetaRepository
	config    *Config
	progress  io.Writer
	processor *BookBatchProcessor
	iterator  *BookIterator
}

// NewReembedder creates a new book reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewReembedder(
	bookRepo storage.BookRepository,
	passageRepo storage.PassageRepository,
	metaRepo storage.MetaRepository,
	embedder ai.Embedder,
	config *Config,
	progress io.Writer,
) *Reembedder {
	if config == nil {
		config = DefaultConfig()
	}

	return &Reembedder{
		bookRepo:  bookRepo,
		metaRepo:  metaRepo,
		config:    config,
		progress:  progress,
		processor: NewBookBatchProcessor(bookRepo, passageRepo, embedder, config.MaxAttempts),
		iterator:  NewBookIterator(bookRepo, config.BatchSize),
	}
}

// Run executes the reembedding operation. Every book in the store is
// reembedded with the configured embedder and the store metadata is
// updated to the new model. Progress is reported to the configured writer.
func (r *Reembedder) Run(ctx context.Context) error {
	total, err := r.bookRepo.CountBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to count books: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No books found in store (0 records)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d books (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, "books", total, r.config.ReportInterval)
	tracker.Start()

	processed := 0
	var dimensions int

	err = r.iterator.ForEach(ctx, func(records []*core.BookRecord) error {
		if err := r.processor.Process(ctx, records); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		if dimensions == 0 && len(records) > 0 {
			dimensions = len(records[0].Vector)
		}

		processed += len(records)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	if err := r.metaRepo.SetStoreInfo(ctx, &storage.StoreInfo{
		EmbeddingModel: r.config.ModelName,
		Dimensions:     dimensions,
	}); err != nil {
		return fmt.Errorf("failed to record store info: %w", err)
	}

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d books in %v (%.1f books/sec)\n",
		total, elapsed.Round(elapsedRounding), float64(total)/elapsed.Seconds())

	return nil
}
