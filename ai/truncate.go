package ai

import "strings"

// TruncateInput applies the input length policy shared by every embedder:
// text longer than maxTokens whitespace-delimited tokens is cut to its first
// maxTokens tokens, re-joined with single spaces. Shorter text is returned
// unchanged. A non-positive maxTokens disables truncation.
//
// Truncation is never reported as an error. The boolean result lets callers
// log when it happened.
func TruncateInput(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return text, false
	}

	fields := strings.Fields(text)
	if len(fields) <= maxTokens {
		return text, false
	}
	return strings.Join(fields[:maxTokens], " "), true
}
