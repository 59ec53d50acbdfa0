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


// Package search provides hybrid semantic and metadata search over books.
//
// The Searcher type implements a scan-and-rank pipeline that combines:
//   - Semantic similarity between the query embedding and stored book vectors
//   - Metadata matching of parsed search terms against book titles
//   - An optional boost from each book's best-matching passage
//
// Queries are parsed into structured form first (intent, result limit,
// attributes, search terms), then every embedded book is scored with a
// weighted blend of semantic and metadata signals. Ranking is stable and
// deterministic for a fixed store and query.
package search
