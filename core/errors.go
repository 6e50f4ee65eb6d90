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

import "errors"

// Top-level error classes. Detail errors below are wrapped together with one of these.
var (
	// ErrLoad indicates the knowledge base could not be loaded. It is fatal at startup.
	ErrLoad = errors.New("knowledge base load failed")

	// ErrEmbedding indicates text could not be turned into a vector.
	ErrEmbedding = errors.New("embedding failed")

	// ErrInvalidQuery indicates a rejected retrieval request.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidKnowledgeBase indicates the knowledge base content violates domain rules.
	ErrInvalidKnowledgeBase = errors.New("invalid knowledge base")

	// ErrIndexMisaligned indicates vectors and chunks are not positionally aligned.
	ErrIndexMisaligned = errors.New("embedding index misaligned with knowledge base")

	// ErrDimensionMismatch indicates vectors of differing dimension were compared or indexed.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Domain validation errors
var (
	// ErrEmptyKnowledgeBase indicates the knowledge base has no labels.
	ErrEmptyKnowledgeBase = errors.New("knowledge base has no labels")

	// ErrEmptyLabel indicates a label is empty or whitespace.
	ErrEmptyLabel = errors.New("label cannot be empty")

	// ErrDuplicateLabel indicates a label appears more than once.
	ErrDuplicateLabel = errors.New("duplicate label")

	// ErrEmptyChunkList indicates a label maps to no chunks.
	ErrEmptyChunkList = errors.New("label has no chunks")

	// ErrEmptyChunk indicates a chunk is empty or whitespace.
	ErrEmptyChunk = errors.New("chunk cannot be empty")

	// ErrEmptyText indicates text to embed is empty or whitespace.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyQuery indicates the query is empty or whitespace.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidTopK indicates top_k is less than 1.
	ErrInvalidTopK = errors.New("top_k must be at least 1")
)
