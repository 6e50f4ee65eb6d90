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


package core

import (
	"fmt"
	"strings"
)

// ValidateSections validates knowledge-base content according to domain rules.
//
// Validation rules:
//   - At least one section
//   - Labels must not be empty and must be unique
//   - Every label must have at least one chunk
//   - Chunks must not be empty or whitespace-only
func ValidateSections(sections []Section) error {
	if len(sections) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidKnowledgeBase, ErrEmptyKnowledgeBase)
	}

	seen := make(map[Label]struct{}, len(sections))
	for i, s := range sections {
		if err := ValidateLabel(s.Label); err != nil {
			return fmt.Errorf("%w: section %d: %w", ErrInvalidKnowledgeBase, i, err)
		}
		if _, dup := seen[s.Label]; dup {
			return fmt.Errorf("%w: %w: %q", ErrInvalidKnowledgeBase, ErrDuplicateLabel, s.Label)
		}
		seen[s.Label] = struct{}{}

		if len(s.Chunks) == 0 {
			return fmt.Errorf("%w: label %q: %w", ErrInvalidKnowledgeBase, s.Label, ErrEmptyChunkList)
		}
		for j, c := range s.Chunks {
			if err := ValidateChunk(c); err != nil {
				return fmt.Errorf("%w: label %q chunk %d: %w", ErrInvalidKnowledgeBase, s.Label, j, err)
			}
		}
	}
	return nil
}

// ValidateLabel checks that a label is non-blank.
func ValidateLabel(label Label) error {
	if strings.TrimSpace(string(label)) == "" {
		return ErrEmptyLabel
	}
	return nil
}

// ValidateChunk checks that a chunk is non-blank.
func ValidateChunk(chunk Chunk) error {
	if strings.TrimSpace(string(chunk)) == "" {
		return ErrEmptyChunk
	}
	return nil
}

// ValidateQuery checks a retrieval request.
func ValidateQuery(query string, topK int) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, ErrEmptyQuery)
	}
	if topK < 1 {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidQuery, ErrInvalidTopK, topK)
	}
	return nil
}
