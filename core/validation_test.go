package core

import (
	"errors"
	"testing"
)

func TestValidateSections(t *testing.T) {
	tests := []struct {
		name     string
		sections []Section
		wantErr  error
	}{
		{
			name: "valid knowledge base",
			sections: []Section{
				{Label: "dowry_demand", Chunks: []Chunk{"He demanded gold from her family."}},
				{Label: "physical_abuse", Chunks: []Chunk{"He hit her repeatedly."}},
			},
			wantErr: nil,
		},
		{
			name:     "no sections",
			sections: nil,
			wantErr:  ErrEmptyKnowledgeBase,
		},
		{
			name: "blank label",
			sections: []Section{
				{Label: "  ", Chunks: []Chunk{"text"}},
			},
			wantErr: ErrEmptyLabel,
		},
		{
			name: "duplicate label",
			sections: []Section{
				{Label: "a", Chunks: []Chunk{"one"}},
				{Label: "a", Chunks: []Chunk{"two"}},
			},
			wantErr: ErrDuplicateLabel,
		},
		{
			name: "label without chunks",
			sections: []Section{
				{Label: "a", Chunks: []Chunk{}},
			},
			wantErr: ErrEmptyChunkList,
		},
		{
			name: "whitespace chunk",
			sections: []Section{
				{Label: "a", Chunks: []Chunk{"ok", "\t\n"}},
			},
			wantErr: ErrEmptyChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSections(tt.sections)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateSections() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateSections() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidKnowledgeBase) {
				t.Errorf("ValidateSections() error = %v, should wrap ErrInvalidKnowledgeBase", err)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		topK    int
		wantErr error
	}{
		{name: "valid", query: "Was dowry demanded?", topK: 2},
		{name: "empty", query: "", topK: 2, wantErr: ErrEmptyQuery},
		{name: "whitespace", query: "   \n", topK: 2, wantErr: ErrEmptyQuery},
		{name: "zero top_k", query: "q", topK: 0, wantErr: ErrInvalidTopK},
		{name: "negative top_k", query: "q", topK: -3, wantErr: ErrInvalidTopK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query, tt.topK)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateQuery() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("ValidateQuery() error = %v, want %v wrapped in ErrInvalidQuery", err, tt.wantErr)
			}
		})
	}
}
