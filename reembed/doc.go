// Package reembed provides functionality for reembedding stored books
// and passages with new or updated embedding models.
//
// This package supports batch processing, progress tracking, retries
// with exponential backoff, and vector normalization to keep the stored
// vectors compatible with cosine similarity search.
package reembed
