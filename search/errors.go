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


package search

import "errors"

var (
	// ErrBookRepositoryRequired is returned when a book repository is not provided.
	ErrBookRepositoryRequired = errors.New("book repository required")

	// ErrPassageRepositoryRequired is returned when a passage repository is not provided.
	ErrPassageRepositoryRequired = errors.New("passage repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmptyQuery is returned when a query contains no usable text.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrDimensionMismatch is returned when two vectors of different
	// dimensionality are compared. This is a fatal input error.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrZeroVector is returned when a zero-magnitude vector makes cosine
	// similarity undefined. Callers skip the offending record rather than
	// propagate the error into ranking.
	ErrZeroVector = errors.New("zero-magnitude vector")

	// ErrInvalidWeights is returned when ranking weights do not sum to 1.0.
	ErrInvalidWeights = errors.New("ranking weights must be non-negative and sum to 1.0")
)
