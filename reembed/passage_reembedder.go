package reembed

import (
	"context"
	"fmt"
	"io"

	"github.com/poiesic/gutensearch/ai"
	"github.com/poiesic/gutensearch/core"
	"github.com/poiesic/gutensearch/storage"
)

// PassageReembedder orchestrates the reembedding of all passages in a store.
type PassageReembedder struct {
	passageRepo storage.PassageRepository
	config      *Config
	progress    io.Writer
	processor   *PassageBatchProcessor
	iterator    *PassageIterator
}

// NewPassageReembedder creates a new passage reembedder.
// progress: where to write progress output (typically os.Stderr)
func NewPassageReembedder(
	passageRepo storage.PassageRepository,
	embedder ai.Embedder,
	config *Config,
	progress io.Writer,
) *PassageReembedder {
	if config == nil {
		config = DefaultConfig()
	}

	return &PassageReembedder{
		passageRepo: passageRepo,
		config:      config,
		progress:    progress,
		processor:   NewPassageBatchProcessor(passageRepo, embedder, config.MaxAttempts),
		iterator:    NewPassageIterator(passageRepo, config.BatchSize),
	}
}

// Run executes the reembedding operation for all passages.
// Progress is reported to the configured writer.
func (r *PassageReembedder) Run(ctx context.Context) error {
	total, err := r.passageRepo.CountPassages(ctx)
	if err != nil {
		return fmt.Errorf("failed to count passages: %w", err)
	}

	if total == 0 {
		fmt.Fprintf(r.progress, "No passages found in store (0 records)\n")
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d passages (batch size: %d)\n",
		total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, "passages", total, r.config.ReportInterval)
	tracker.Start()

	processed := 0

	err = r.iterator.ForEach(ctx, func(records []*core.PassageRecord) error {
		if err := r.processor.Process(ctx, records); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}

		processed += len(records)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d passages in %v (%.1f passages/sec)\n",
		total, elapsed.Round(elapsedRounding), float64(total)/elapsed.Seconds())

	return nil
}
