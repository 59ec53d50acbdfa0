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

// Package repository publishes books to an external records platform
// over its REST API.
//
// Publishing a book takes four calls: create a draft record, initialize
// a file entry, upload the text content, then publish the draft. All
// calls carry a bearer token loaded from a token file, retry with
// backoff on server errors, and fail fast on client errors. The
// Uploader walks a local collection and publishes each book, skipping
// any that fail.
package repository
