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

import "fmt"

// ValidateBookRecord validates a BookRecord according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - SourceId must not be empty
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the embedding processor runs)
//   - TextLength (0 is valid for metadata-only records)
//   - ID (derived from SourceId at insertion time)
func ValidateBookRecord(record *BookRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidBookRecord)
	}

	if record.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBookRecord, ErrEmptyTitle)
	}

	if record.SourceId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBookRecord, ErrEmptySourceId)
	}

	return nil
}

// ValidatePassageRecord validates a PassageRecord according to domain rules.
//
// Validation rules:
//   - Contents must not be empty
//   - BookId must reference a book
//   - Position must not be negative
//
// NOT validated (populated by processors):
//   - Vector (can be empty until the passage is embedded)
//   - ID (0 is valid from database sequences)
func ValidatePassageRecord(record *PassageRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidPassageRecord)
	}

	if record.Contents == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPassageRecord, ErrEmptyContents)
	}

	if record.BookId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPassageRecord, ErrMissingBookId)
	}

	if record.Position < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPassageRecord, ErrNegativePosition)
	}

	return nil
}

// ValidateQueryIntent validates that a QueryIntent has a valid value.
func ValidateQueryIntent(intent QueryIntent) error {
	if intent != IntentSearch && intent != IntentSimilar {
		return fmt.Errorf("%w: value %d", ErrInvalidIntent, intent)
	}
	return nil
}
