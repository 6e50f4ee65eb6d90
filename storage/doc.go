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


// Package storage provides the storage abstraction layer for lexrag.
//
// The only persistent state is the embedding cache: chunk vectors keyed by
// embedding model and content ID. The cache is an optimisation. Retrieval
// results are identical with or without it.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage interface rather than the concrete
// backend type:
//
//	cache, err := badger.NewCache(backend)  // returns storage.EmbeddingCache
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Usage
//
// Open an on-disk cache:
//
//	backend, err := badger.OpenBackend("/var/cache/lexrag", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache, err := badger.NewCache(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
// Use in tests with in-memory storage:
//
//	cache, err := badger.NewMemoryCache()
//
// # Vector Encoding
//
// MarshalVector writes a little-endian uint32 length followed by
// little-endian float32 components. UnmarshalVector rejects short or
// over-long buffers with ErrSerializationFailed.
//
// # Thread Safety
//
// All cache implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
