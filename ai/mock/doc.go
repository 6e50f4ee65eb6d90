// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// and ai.AIProvider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Pin vectors for the texts a test cares about
//	embedder := mock.NewMockEmbedderWithVectors(map[string][]float32{
//	    "query":   {1, 0},
//	    "chunk a": {1, 0},
//	    "chunk b": {0, 1},
//	})
//
//	// Canned generator replies
//	generator := mock.NewMockGenerator("Section 498A IPC applies.")
//
//	provider := mock.NewMockProviderWithServices(embedder, generator)
//
// # Default Behavior
//
//   - MockEmbedder: pinned vectors first, otherwise deterministic vectors from the text hash
//   - MockGenerator: canned responses via langchaingo's fake LLM, cycling when exhausted
//   - MockProvider: aggregates mock embedder and generator
package mock
