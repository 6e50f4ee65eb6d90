package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanReply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Yes, dowry was demanded.\n", "Yes, dowry was demanded."},
		{"think block", "<think>The context mentions gold.</think>\nYes, dowry was demanded.", "Yes, dowry was demanded."},
		{"two think blocks", "<think>a</think>Yes<think>b</think>.", "Yes."},
		{"unterminated think", "No.<think>still reasoning", "No."},
		{"fenced", "```\nInsufficient evidence in context.\n```", "Insufficient evidence in context."},
		{"fenced with language", "```text\nThe wife was beaten.\n```", "The wife was beaten."},
		{"inline fence", "```Yes```", "Yes"},
		{"only fence", "```", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanReply(tt.in))
		})
	}
}
