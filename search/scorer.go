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

import (
	"fmt"
	"math"
	"strings"
)

// weightEpsilon is the tolerance used when checking that weights sum to 1.0.
const weightEpsilon = 1e-4

// CosineSimilarity computes the cosine similarity between two vectors,
// a value in [-1, 1].
//
// Returns ErrDimensionMismatch if the vectors have different lengths and
// ErrZeroVector if either vector has zero magnitude, since the result is
// undefined in that case.
func CosineSimilarity(q, v []float32) (float32, error) {
	if len(q) != len(v) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(q), len(v))
	}
	if len(q) == 0 {
		return 0, ErrZeroVector
	}

	var dot, qMag, vMag float32
	for i := range q {
		dot += q[i] * v[i]
		qMag += q[i] * q[i]
		vMag += v[i] * v[i]
	}

	if qMag == 0 || vMag == 0 {
		return 0, ErrZeroVector
	}

	denom := float32(math.Sqrt(float64(qMag)) * math.Sqrt(float64(vMag)))
	return dot / denom, nil
}

// Weights holds the blend weights for hybrid ranking.
// Semantic weights the embedding similarity; Metadata weights the
// search-term match against the title. The two must sum to 1.0.
type Weights struct {
	Semantic float32
	Metadata float32
}

// DefaultWeights returns the standard 0.7/0.3 semantic/metadata blend.
func DefaultWeights() Weights {
	return Weights{Semantic: 0.7, Metadata: 0.3}
}

// Validate checks that both weights are non-negative and sum to 1.0
// within a small tolerance.
func (w Weights) Validate() error {
	if w.Semantic < 0 || w.Metadata < 0 {
		return ErrInvalidWeights
	}
	sum := float64(w.Semantic + w.Metadata)
	if math.Abs(sum-1.0) > weightEpsilon {
		return fmt.Errorf("%w: got %.4f", ErrInvalidWeights, sum)
	}
	return nil
}

// Hybrid blends a semantic score and a metadata score into a single
// ranking score. The result is monotonically non-decreasing in each
// input for fixed values of the other.
func (w Weights) Hybrid(semanticScore, metadataScore float32) float32 {
	return w.Semantic*semanticScore + w.Metadata*metadataScore
}

// MetadataScore computes the fraction of search terms found as a
// case-insensitive substring of the title, a value in [0, 1].
// Returns 0 when no terms are supplied; a missing term list is never
// an error.
func MetadataScore(title string, terms []string) float32 {
	if len(terms) == 0 {
		return 0
	}

	lowerTitle := strings.ToLower(title)
	found := 0
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(lowerTitle, strings.ToLower(term)) {
			found++
		}
	}

	return float32(found) / float32(len(terms))
}
