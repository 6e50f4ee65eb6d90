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


// Package ai provides abstractions for AI services used in lexrag.
//
// This package defines interfaces for text embeddings and answer generation.
// Retrieval and answering code depend on these abstractions rather than on
// concrete implementations.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Produces an answer from a fully assembled prompt
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/hashing: Offline feature-hashing embedder with no network access
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, hashing.NewEmbedder, etc.) return
// INTERFACE types. Test utility constructors (mock.NewMockEmbedder,
// mock.NewMockGenerator) return CONCRETE types so tests can inject behavior and
// assert on call counts.
//
// # Input Length Policy
//
// Embedding models accept a bounded input. TruncateInput is the single,
// explicit policy: input longer than Config.MaxInputTokens whitespace-delimited
// tokens is cut to that many tokens before embedding. It never fails.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithEmbeddingModel("all-minilm"))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Was dowry demanded?")
//	answer, err := provider.Generator().Generate(ctx, prompt, config.GenerateOptions())
package ai
