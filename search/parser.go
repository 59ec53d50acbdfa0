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
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/gutensearch/core"
)

// DefaultLimit is the number of results returned when the query does not
// request a specific count.
const DefaultLimit = 10

var (
	quotedPattern = regexp.MustCompile(`"([^"]+)"`)
	authorPattern = regexp.MustCompile(`(?i)\bby\s+([^,.;"]+)`)
)

// ParseQuery derives a structured query from free text. Parsing is
// deterministic and rule based:
//
//   - "similar to <title>" sets the intent to IntentSimilar; everything
//     after the phrase becomes the reference text.
//   - The first standalone positive integer becomes the result limit.
//   - "by <name>" populates the "author" attribute.
//   - Quoted phrases and remaining content words (after stop-word and
//     command-filler removal) become search terms.
//   - The semantic query is the text with command filler stripped,
//     falling back to the raw input when nothing survives.
//
// Returns ErrEmptyQuery when the input contains no usable text. The
// returned query is never mutated after creation.
func ParseQuery(query string) (*core.ParsedQuery, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, ErrEmptyQuery
	}

	parsed := &core.ParsedQuery{
		Intent:     core.IntentSearch,
		Attributes: make(map[string]string),
	}

	working := trimmed

	// Intent: everything after "similar to" is the reference text
	if idx := strings.Index(strings.ToLower(working), "similar to "); idx >= 0 {
		parsed.Intent = core.IntentSimilar
		working = strings.TrimSpace(working[idx+len("similar to "):])
	}

	// Limit: first standalone positive integer, removed from the text
	working = extractLimit(working, parsed)

	// Quoted phrases are exact search terms, removed before word splitting
	var terms []string
	working = quotedPattern.ReplaceAllStringFunc(working, func(match string) string {
		phrase := strings.ToLower(strings.TrimSpace(strings.Trim(match, `"`)))
		if phrase != "" {
			terms = append(terms, phrase)
		}
		return " "
	})

	// Attributes: "by <name>" names an author, removed from the term text
	// but kept in the semantic query as topical signal
	termText := working
	if m := authorPattern.FindStringSubmatchIndex(working); m != nil {
		author := strings.TrimSpace(working[m[2]:m[3]])
		if author != "" {
			parsed.Attributes["author"] = author
		}
		termText = working[:m[0]] + " " + working[m[1]:]
	}

	terms = append(terms, contentWords(termText)...)
	parsed.SearchTerms = terms

	// Semantic query: filler stripped, raw input as fallback
	semantic := strings.Join(contentWords(working), " ")
	if semantic == "" {
		semantic = trimmed
	}
	parsed.SemanticQuery = semantic

	return parsed, nil
}

// extractLimit removes the first standalone positive integer from the
// query text and records it as the result limit. A limit of zero means
// the query did not specify one.
func extractLimit(text string, parsed *core.ParsedQuery) string {
	fields := strings.Fields(text)
	kept := make([]string, 0, len(fields))

	for _, field := range fields {
		if parsed.Limit == 0 {
			cleaned := strings.Trim(field, ".,!?;:'\"-()[]{}")
			if n, err := strconv.Atoi(cleaned); err == nil && n > 0 {
				parsed.Limit = n
				continue
			}
		}
		kept = append(kept, field)
	}

	return strings.Join(kept, " ")
}
