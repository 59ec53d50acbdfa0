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


package ingestion

import (
	"context"

	"github.com/poiesic/gutensearch/core"
)

// bookText pairs a stored book record with the source text being
// processed. Book contents are not persisted wholesale, so the text has
// to travel with the work item.
type bookText struct {
	id       core.ID
	title    string
	contents string
}

// processor is an internal interface for enriching ingested books.
// Implementations handle specific enrichment tasks like book embeddings
// or passage extraction.
type processor interface {
	// process enriches the books identified by the given work items.
	process(ctx context.Context, items ...*bookText) error
}
