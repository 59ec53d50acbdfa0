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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidBookRecord indicates a BookRecord failed validation.
	ErrInvalidBookRecord = errors.New("invalid book record")

	// ErrInvalidPassageRecord indicates a PassageRecord failed validation.
	ErrInvalidPassageRecord = errors.New("invalid passage record")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptySourceId indicates the SourceId field is empty.
	ErrEmptySourceId = errors.New("source id cannot be empty")

	// ErrEmptyContents indicates the Contents field is empty.
	ErrEmptyContents = errors.New("contents cannot be empty")

	// ErrMissingBookId indicates a passage has no parent book.
	ErrMissingBookId = errors.New("passage must reference a book")

	// ErrNegativePosition indicates a passage position is negative.
	ErrNegativePosition = errors.New("passage position cannot be negative")

	// ErrInvalidIntent indicates an invalid QueryIntent value.
	ErrInvalidIntent = errors.New("invalid query intent")
)
