// Package knowledge loads the labelled legal knowledge base and turns its
// text into embeddings.
//
// Load parses a JSON or YAML file mapping each label to a list of annotated
// chunks. A Store wraps an ai.Embedder: EmbedOne embeds queries, BuildIndex
// embeds a whole knowledge base on an ants worker pool, retrying failed
// batches with exponential backoff and reusing vectors from an optional
// storage.EmbeddingCache.
//
// Inputs longer than the configured token limit are truncated to their
// leading tokens before embedding. Vectors are normalised to unit length.
package knowledge
