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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/gutensearch"
	"github.com/poiesic/gutensearch/ai"
	"github.com/poiesic/gutensearch/ai/openai"
	"github.com/poiesic/gutensearch/ingestion"
	"github.com/poiesic/gutensearch/reembed"
	"github.com/poiesic/gutensearch/repository"
	"github.com/poiesic/gutensearch/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "gutensearch",
		Usage: "Hybrid semantic search over a book library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the search HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: ":8080",
					},
					embeddingHostFlag(),
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
					&cli.StringFlag{
						Name:  "summarizer-host",
						Usage: "Summarizer service host URL (defaults to embedding-host)",
					},
					&cli.StringFlag{
						Name:  "summarizer-model",
						Usage: "Summarizer model name",
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import an embedding snapshot file into the store",
				ArgsUsage: "<snapshot.json>",
				Action:    importCommand,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:   "ingest",
				Usage:  "Ingest a local book collection (metadata JSON + text files)",
				Action: ingestCommand,
				Flags: []cli.Flag{
					dbFlag(),
					dataDirFlag(),
					embeddingHostFlag(),
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Worker pool size for embedding and passage processing",
					},
				},
			},
			{
				Name:   "upload",
				Usage:  "Publish a local book collection to the records platform",
				Action: uploadCommand,
				Flags: []cli.Flag{
					dataDirFlag(),
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Records platform base URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "token-file",
						Usage:    "Path to the API token file",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Limit number of books to upload (default: all)",
					},
					&cli.BoolFlag{
						Name:  "insecure",
						Usage: "Skip TLS certificate verification (self-signed dev servers)",
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all books with a new embedding model",
				Action: reembedCommand,
				Flags:  reembedFlags(),
			},
			{
				Name:   "reembed-passages",
				Usage:  "Reembed all passages with a new embedding model",
				Action: reembedPassagesCommand,
				Flags:  reembedFlags(),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}

func dataDirFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "data-dir",
		Usage:    "Directory holding metadata/*.json and books/*.txt",
		Required: true,
	}
}

func embeddingHostFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "embedding-host",
		Usage: "Embedding service host URL",
		Value: "http://localhost:11434/v1",
	}
}

func reembedFlags() []cli.Flag {
	return []cli.Flag{
		dbFlag(),
		embeddingHostFlag(),
		&cli.StringFlag{
			Name:     "embedding-model",
			Usage:    "Embedding model name",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Number of records to process in each batch",
			Value: 100,
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N records",
			Value: 100,
		},
		&cli.UintFlag{
			Name:  "max-retries",
			Usage: "Maximum retry attempts for failed operations",
			Value: 3,
		},
	}
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithEmbeddingHost(c.String("embedding-host")),
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if host := c.String("summarizer-host"); host != "" {
		opts = append(opts, ai.WithSummarizerHost(host))
	}
	if model := c.String("summarizer-model"); model != "" {
		opts = append(opts, ai.WithSummarizerModel(model))
	}
	return ai.NewConfig(opts...)
}

func serveCommand(c *cli.Context) error {
	config := aiConfigFromFlags(c)
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	library, err := gutensearch.NewLibrary(c.String("db"), gutensearch.WithAIConfig(config))
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer library.Close()

	searcher, err := library.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	srv, err := library.NewServer(searcher)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx, c.String("addr"))
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one snapshot file argument")
	}
	path := c.Args().First()

	library, err := gutensearch.NewLibrary(c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer library.Close()

	summary, err := library.ImportSnapshot(context.Background(), path)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Imported %d, updated %d, skipped %d (%d dimensions)\n",
		summary.Imported, summary.Updated, summary.Skipped, summary.Dimensions)
	return nil
}

func ingestCommand(c *cli.Context) error {
	config := aiConfigFromFlags(c)
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	library, err := gutensearch.NewLibrary(c.String("db"), gutensearch.WithAIConfig(config))
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer library.Close()

	sources, err := loadBookSources(c.String("data-dir"))
	if err != nil {
		return err
	}

	var opts []ingestion.Option
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, ingestion.WithPoolSize(workers))
	}
	pipeline, err := library.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	records, err := pipeline.Ingest(context.Background(), sources...)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Stored %d of %d books, processing embeddings...\n", len(records), len(sources))
	pipeline.Wait()
	fmt.Fprintln(os.Stderr, "Done")
	return nil
}

// loadBookSources pairs metadata/<name>.json files with books/<name>.txt
// text files. Books with missing or unreadable files are skipped.
func loadBookSources(dataDir string) ([]*ingestion.BookSource, error) {
	entries, err := filepath.Glob(filepath.Join(dataDir, "metadata", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata files: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no metadata files found in %s", filepath.Join(dataDir, "metadata"))
	}
	sort.Strings(entries)

	sources := make([]*ingestion.BookSource, 0, len(entries))
	for _, metadataPath := range entries {
		name := strings.TrimSuffix(filepath.Base(metadataPath), ".json")

		raw, err := os.ReadFile(metadataPath)
		if err != nil {
			slog.Warn("skipping book with unreadable metadata", "name", name, "error", err)
			continue
		}
		var meta repository.BookMetadata
		if err := json.Unmarshal(raw, &meta); err != nil {
			slog.Warn("skipping book with malformed metadata", "name", name, "error", err)
			continue
		}

		contents, err := os.ReadFile(filepath.Join(dataDir, "books", name+".txt"))
		if err != nil {
			slog.Warn("skipping book with missing text", "name", name, "error", err)
			continue
		}

		metadata := make(map[string]string)
		if len(meta.Authors) > 0 {
			metadata["author"] = meta.Authors[0].Name
		}
		if len(meta.Subjects) > 0 {
			metadata["subjects"] = strings.Join(meta.Subjects, "; ")
		}

		sources = append(sources, &ingestion.BookSource{
			SourceId: name,
			Title:    meta.Title,
			Contents: string(contents),
			Metadata: metadata,
		})
	}

	return sources, nil
}

func uploadCommand(c *cli.Context) error {
	var opts []repository.ClientOption
	if c.Bool("insecure") {
		opts = append(opts, repository.WithInsecureTLS())
	}

	client, err := repository.NewClient(c.String("url"), c.String("token-file"), opts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	uploader, err := repository.NewUploader(client)
	if err != nil {
		return fmt.Errorf("failed to create uploader: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := uploader.UploadAll(ctx, c.String("data-dir"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Published %d of %d books\n", summary.Successful, summary.Total)
	if len(summary.Failed) > 0 {
		fmt.Fprintf(os.Stderr, "Failed: %s\n", strings.Join(summary.Failed, ", "))
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	bookRepo, err := badger.NewBookRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create book repository: %w", err)
	}
	defer bookRepo.Close()

	passageRepo, err := badger.NewPassageRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create passage repository: %w", err)
	}
	defer passageRepo.Close()

	metaRepo := badger.NewMetaRepository(backend)

	embedder, reembedConfig, err := reembedSetup(c)
	if err != nil {
		return err
	}

	reembedder := reembed.NewReembedder(bookRepo, passageRepo, metaRepo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func reembedPassagesCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer backend.Close()

	passageRepo, err := badger.NewPassageRepository(backend)
	if err != nil {
		return fmt.Errorf("failed to create passage repository: %w", err)
	}
	defer passageRepo.Close()

	embedder, reembedConfig, err := reembedSetup(c)
	if err != nil {
		return err
	}

	reembedder := reembed.NewPassageReembedder(passageRepo, embedder, reembedConfig, os.Stderr)

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("embedding-host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reembedder.Run(ctx); err != nil {
		return fmt.Errorf("passage reembedding failed: %w", err)
	}
	return nil
}

func reembedSetup(c *cli.Context) (ai.Embedder, *reembed.Config, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxAttempts:    c.Uint("max-retries"),
		ModelName:      c.String("embedding-model"),
	}
	if reembedConfig.BatchSize <= 0 {
		return nil, nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return nil, nil, fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxAttempts == 0 {
		return nil, nil, fmt.Errorf("max-retries must be greater than 0")
	}

	return embedder, reembedConfig, nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
