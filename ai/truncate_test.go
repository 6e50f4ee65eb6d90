package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateInput(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		maxTokens     int
		expected      string
		wantTruncated bool
	}{
		{name: "short text untouched", text: "He hit her.", maxTokens: 5, expected: "He hit her."},
		{name: "exact length untouched", text: "one two three", maxTokens: 3, expected: "one two three"},
		{name: "long text cut", text: "one two  three\nfour", maxTokens: 2, expected: "one two", wantTruncated: true},
		{name: "limit disabled", text: "one two three", maxTokens: 0, expected: "one two three"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, truncated := TruncateInput(tt.text, tt.maxTokens)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.wantTruncated, truncated)
		})
	}
}

func TestTruncateInput_LongDocument(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	got, truncated := TruncateInput(text, 256)

	assert.True(t, truncated)
	assert.Len(t, strings.Fields(got), 256)
}
