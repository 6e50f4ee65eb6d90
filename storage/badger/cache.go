package badger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
)

// Cache implements storage.EmbeddingCache on top of BadgerDB.
// It owns the backend and closes it on Close.
type Cache struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.EmbeddingCache = (*Cache)(nil)

// newCache is the internal constructor returning the concrete type.
func newCache(backend *Backend) (*Cache, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &Cache{
		backend: backend,
		logger:  slog.Default().With("component", "embedding-cache"),
	}, nil
}

// NewCache creates an embedding cache over an open backend.
//
// Returns storage.EmbeddingCache interface to enforce abstraction.
func NewCache(backend *Backend) (storage.EmbeddingCache, error) {
	return newCache(backend)
}

// OpenCache opens (creating if needed) an on-disk cache at path.
func OpenCache(path string) (storage.EmbeddingCache, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	cache, err := newCache(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return cache, nil
}

// GetVectors returns the cached vectors for ids under model.
func (c *Cache) GetVectors(ctx context.Context, model string, ids ...core.ID) (map[core.ID]core.Vector, error) {
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	found := make(map[core.ID]core.Vector, len(ids))
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			vec, err := readVector(tx, makeVectorKey(model, id))
			if err != nil {
				return err
			}
			if vec != nil {
				found[id] = vec
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("cache lookup", "model", model, "requested", len(ids), "hits", len(found))
	return found, nil
}

// PutVectors stores vectors under model.
func (c *Cache) PutVectors(ctx context.Context, model string, vectors map[core.ID]core.Vector) error {
	if c.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if len(vectors) == 0 {
		return nil
	}

	return c.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for id, vec := range vectors {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Set(makeVectorKey(model, id), storage.MarshalVector(vec)); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountVectors returns the number of vectors cached under model.
func (c *Cache) CountVectors(ctx context.Context, model string) (int, error) {
	keys, err := c.modelKeys(model)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// PurgeModel deletes every vector cached under model.
func (c *Cache) PurgeModel(ctx context.Context, model string) (int, error) {
	keys, err := c.modelKeys(model)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}

	err = c.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := wb.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.logger.Info("purged cached vectors", "model", model, "count", len(keys))
	return len(keys), nil
}

// Close closes the underlying backend.
func (c *Cache) Close() error {
	if c.backend.IsClosed() {
		return nil
	}
	return c.backend.Close()
}

// modelKeys lists the keys owned by model, skipping keys of models whose
// name extends it.
func (c *Cache) modelKeys(model string) ([][]byte, error) {
	if c.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	candidates, err := c.backend.KeysWithPrefix(makeModelPrefix(model))
	if err != nil {
		return nil, err
	}
	keys := candidates[:0]
	for _, key := range candidates {
		if _, ok := parseVectorKey(model, key); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// readVector reads a vector from the transaction. A missing key yields nil.
func readVector(tx *badger.Txn, key []byte) (core.Vector, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var vec core.Vector
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		vec, unmarshalErr = storage.UnmarshalVector(val)
		return unmarshalErr
	})
	return vec, err
}
