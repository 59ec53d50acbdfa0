package search

import "strings"

// Stop words filtered out of search terms and verbatim-match checks
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// Command filler words stripped from queries before term extraction.
// These carry navigational intent ("show me 3 books about whales"), not
// topical content.
var fillerWords = map[string]bool{
	"show": true, "find": true, "get": true, "give": true, "search": true,
	"look": true, "me": true, "some": true, "please": true, "want": true,
	"need": true, "about": true, "book": true, "books": true, "top": true,
	"best": true, "results": true, "result": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		// Lowercase and trim punctuation
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))

		// Skip stop words and empty strings
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// contentWords filters stop words and command filler from text, returning
// the lowercased topical words that remain.
func contentWords(text string) []string {
	words := tokenizeAndFilter(text)
	filtered := words[:0]
	for _, word := range words {
		if !fillerWords[word] {
			filtered = append(filtered, word)
		}
	}
	return filtered
}
