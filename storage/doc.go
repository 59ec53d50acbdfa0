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


// Package storage provides the storage abstraction layer for gutensearch.
//
// This package defines repository interfaces that decouple storage
// implementation from the search and ingestion logic. It allows different
// storage backends (BadgerDB, in-memory, etc.) to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple backends:
//
//	repo, err := badger.NewBookRepository(backend)  // returns storage.BookRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - BookRepository: book records plus linear cosine similarity scans
//   - PassageRepository: passage records and best-passage lookups
//   - MetaRepository: corpus-level metadata (model name, dimensions)
//
// Records are serialized with the MUS binary format (see serialization.go);
// codecs for the core types are generated by cmd/musgen.
package storage
