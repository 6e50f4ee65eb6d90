package openai

import "strings"

// cleanReply strips what chat models commonly wrap around an answer:
// <think>...</think> reasoning blocks and Markdown code fences.
func cleanReply(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start < 0 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end < 0 {
			// Unterminated block, the model ran out of tokens while thinking.
			s = s[:start]
			break
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}

	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop the language tag, if any.
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
