// Package ingestion provides pipeline orchestration for processing books.
//
// The Pipeline type manages the ingestion workflow for books, including:
//   - Adding book records to storage
//   - Generating book-level embeddings asynchronously
//   - Chunking text into embedded passages asynchronously
//
// Processing is performed concurrently using worker pools to maximize throughput.
// Errors during async processing are logged but do not fail the ingestion operation.
package ingestion
