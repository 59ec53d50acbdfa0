package openai

import "fmt"

const summaryPromptTemplate = `Summarize the given text in plain prose.

Rules:
- The summary must be between %d and %d words long.
- Write complete sentences in a neutral, descriptive register.
- Do not include any preamble, explanation, greeting, or acknowledgment. Start your response directly with the first word of the summary.
- Do not use markdown, bullet points, headings, or any other markup.
- Describe only what is present in the text. Do not speculate or editorialize.`

// buildSummaryPrompt creates the system prompt with length bounds embedded.
func buildSummaryPrompt(maxWords, minWords int) string {
	return fmt.Sprintf(summaryPromptTemplate, minWords, maxWords)
}
