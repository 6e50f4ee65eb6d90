package answer

import (
	"fmt"
	"strings"

	"github.com/poiesic/lexrag/core"
)

// InsufficientEvidence is the answer given when the retrieved context does
// not support one.
const InsufficientEvidence = "Insufficient evidence in context."

const answerPromptTemplate = `You are a legal research assistant specializing in domestic violence case analysis.

Use the CONTEXT section carefully to answer the QUESTION below.
If the context clearly supports the answer, rephrase and summarize it clearly in 2-3 lines.
If not enough evidence exists, respond: "%s"

### CONTEXT (from prior annotated data)
%s

### NEW CASE SNIPPET
%s

### QUESTION
%s

Answer in a structured, factual, and lawyer-friendly manner.
Keep it concise (2-3 lines) and avoid raw repetition.
`

// PromptOptions bounds how much text goes into a prompt.
type PromptOptions struct {
	// MaxContexts is the number of retrieved chunks included.
	MaxContexts int `yaml:"max_contexts"`

	// MaxCaseRunes is the length of the case snippet in runes.
	MaxCaseRunes int `yaml:"max_case_runes"`
}

// DefaultPromptOptions returns the limits used when none are configured.
func DefaultPromptOptions() PromptOptions {
	return PromptOptions{
		MaxContexts:  4,
		MaxCaseRunes: 1500,
	}
}

// BuildPrompt assembles the generation prompt from the ranked contexts of a
// retrieval, the leading part of the case text and the question.
// Non-positive limits fall back to the defaults.
func BuildPrompt(question string, contexts []core.Chunk, caseText string, opts PromptOptions) string {
	defaults := DefaultPromptOptions()
	if opts.MaxContexts < 1 {
		opts.MaxContexts = defaults.MaxContexts
	}
	if opts.MaxCaseRunes < 1 {
		opts.MaxCaseRunes = defaults.MaxCaseRunes
	}

	parts := make([]string, 0, min(len(contexts), opts.MaxContexts))
	for _, c := range contexts[:min(len(contexts), opts.MaxContexts)] {
		parts = append(parts, string(c))
	}

	return fmt.Sprintf(answerPromptTemplate,
		InsufficientEvidence,
		strings.Join(parts, " "),
		Snippet(caseText, opts.MaxCaseRunes),
		question,
	)
}

// Snippet returns the first n runes of text.
func Snippet(text string, n int) string {
	if n < 0 {
		return ""
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}
