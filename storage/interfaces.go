package storage

import (
	"context"

	"github.com/poiesic/lexrag/core"
)

// EmbeddingCache persists chunk vectors between runs so that rebuilding an
// index does not re-embed unchanged text.
// Implementations must be thread-safe and support concurrent access.
//
// Vectors are namespaced by model. A vector stored under one model is never
// returned for another.
type EmbeddingCache interface {
	// GetVectors returns the cached vectors for ids under model.
	// Missing ids are absent from the result map; a miss is not an error.
	GetVectors(ctx context.Context, model string, ids ...core.ID) (map[core.ID]core.Vector, error)

	// PutVectors stores vectors under model, replacing existing entries.
	PutVectors(ctx context.Context, model string, vectors map[core.ID]core.Vector) error

	// CountVectors returns the number of vectors cached under model.
	CountVectors(ctx context.Context, model string) (int, error)

	// PurgeModel deletes every vector cached under model and returns how
	// many were removed.
	PurgeModel(ctx context.Context, model string) (int, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
