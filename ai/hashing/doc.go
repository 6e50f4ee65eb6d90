// Package hashing provides an offline ai.AIProvider whose embedder maps text
// to vectors by signed feature hashing of its content words.
//
// Vectors are deterministic and need no model download or network access,
// which makes the provider suitable for tests and air-gapped deployments.
// Two texts score above zero only when they share a content word (or two
// different words collide in the same bucket with the same sign), so the
// provider is a lexical stand-in for a real sentence encoder.
//
// The provider has no generator. Generator().Generate always fails with
// ai.ErrGeneratorUnavailable.
package hashing
