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
	"io"
	"log/slog"

	"github.com/poiesic/gutensearch/ai"
	"github.com/poiesic/gutensearch/ai/openai"
	"github.com/poiesic/gutensearch/ingestion"
	"github.com/poiesic/gutensearch/reembed"
	"github.com/poiesic/gutensearch/search"
	"github.com/poiesic/gutensearch/server"
	"github.com/poiesic/gutensearch/storage"
	"github.com/poiesic/gutensearch/storage/badger"
)

// Library bundles the storage backend, its repositories, and the AI
// provider behind one handle. It is the entry point for embedding
// applications and the CLI.
type Library struct {
	backend     *badger.Backend
	bookRepo    storage.BookRepository
	passageRepo storage.PassageRepository
	metaRepo    storage.MetaRepository
	provider    ai.Provider
	logger      *slog.Logger
}

// LibraryOption configures a Library.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
	inMemory bool
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) LibraryOption {
	return func(o *libraryOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects an already-constructed AI provider instead of
// building one from configuration.
func WithProvider(provider ai.Provider) LibraryOption {
	return func(o *libraryOptions) {
		o.provider = provider
	}
}

// WithInMemoryStore opens the backend in memory, discarding all data on
// close.
func WithInMemoryStore() LibraryOption {
	return func(o *libraryOptions) {
		o.inMemory = true
	}
}

// NewLibrary opens the store at filePath and wires repositories and the
// AI provider.
func NewLibrary(filePath string, opts ...LibraryOption) (*Library, error) {
	options := &libraryOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	bookRepo, err := badger.NewBookRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	passageRepo, err := badger.NewPassageRepository(backend)
	if err != nil {
		bookRepo.Close()
		backend.Close()
		return nil, err
	}

	metaRepo := badger.NewMetaRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			passageRepo.Close()
			bookRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	return &Library{
		backend:     backend,
		bookRepo:    bookRepo,
		passageRepo: passageRepo,
		metaRepo:    metaRepo,
		provider:    provider,
		logger:      slog.Default(),
	}, nil
}

func (l *Library) Close() error {
	if err := l.provider.Close(); err != nil {
		l.logger.Error("error closing AI provider", "err", err)
	}

	if err := l.passageRepo.Close(); err != nil {
		l.logger.Error("error closing passage repository", "err", err)
		return err
	}
	if err := l.bookRepo.Close(); err != nil {
		l.logger.Error("error closing book repository", "err", err)
		return err
	}

	if err := l.backend.Close(); err != nil {
		l.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (l *Library) BookRepository() storage.BookRepository {
	return l.bookRepo
}

func (l *Library) PassageRepository() storage.PassageRepository {
	return l.passageRepo
}

func (l *Library) MetaRepository() storage.MetaRepository {
	return l.metaRepo
}

func (l *Library) Provider() ai.Provider {
	return l.provider
}

func (l *Library) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(l.bookRepo, l.passageRepo, l.provider, opts...)
}

func (l *Library) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(l.bookRepo, l.passageRepo, l.metaRepo, l.provider, opts...)
}

func (l *Library) NewServer(searcher *search.Searcher, opts ...server.Option) (*server.Server, error) {
	return server.NewServer(searcher, l.bookRepo, l.passageRepo, l.metaRepo, opts...)
}

func (l *Library) NewReembedder(config *reembed.Config, progress io.Writer) *reembed.Reembedder {
	return reembed.NewReembedder(l.bookRepo, l.passageRepo, l.metaRepo, l.provider.Embedder(), config, progress)
}

func (l *Library) NewPassageReembedder(config *reembed.Config, progress io.Writer) *reembed.PassageReembedder {
	return reembed.NewPassageReembedder(l.passageRepo, l.provider.Embedder(), config, progress)
}
