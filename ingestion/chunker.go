package ingestion

import (
	"regexp"
	"strings"
)

const (
	// defaultChunkTokens is the target size of a passage in estimated tokens.
	defaultChunkTokens = 400

	// defaultOverlapTokens is how much trailing text carries over into the
	// next passage so context survives the chunk boundary.
	defaultOverlapTokens = 80
)

var paragraphBreak = regexp.MustCompile(`\r?\n\s*\r?\n`)

// chunkText splits plain text into passage-sized chunks along paragraph
// boundaries. Paragraphs accumulate until the target token estimate is
// reached, then the chunk is flushed and the trailing paragraphs within
// the overlap budget seed the next one. A single paragraph larger than
// the target becomes its own chunk.
func chunkText(text string, targetTokens, overlapTokens int) []string {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(current, "\n\n"))

		// Seed the next chunk with trailing paragraphs inside the overlap budget
		overlap := 0
		var kept []string
		for i := len(current) - 1; i >= 0; i-- {
			tokens := estimateTokens(current[i])
			if overlap+tokens > overlapTokens {
				break
			}
			overlap += tokens
			kept = append([]string{current[i]}, kept...)
		}
		current = kept
		currentTokens = overlap
	}

	for _, paragraph := range paragraphs {
		tokens := estimateTokens(paragraph)
		if currentTokens > 0 && currentTokens+tokens > targetTokens {
			flush()
		}
		current = append(current, paragraph)
		currentTokens += tokens
	}

	// Final flush with no carry-over
	if len(current) > 0 {
		last := strings.Join(current, "\n\n")
		if len(chunks) == 0 || chunks[len(chunks)-1] != last {
			chunks = append(chunks, last)
		}
	}

	return chunks
}

// splitParagraphs splits text on blank lines, dropping empty paragraphs.
func splitParagraphs(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}

// estimateTokens approximates the token count of text.
// Words count one each; non-ASCII runes count one each since CJK text
// does not space-separate.
func estimateTokens(text string) int {
	count := 0
	for _, r := range text {
		if r > 127 {
			count++
		}
	}
	count += len(strings.Fields(text))
	if count == 0 && len(text) > 0 {
		return 1
	}
	return count
}
