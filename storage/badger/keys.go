package badger

import (
	"fmt"
	"strconv"

	"github.com/poiesic/lexrag/core"
)

// Key prefixes for different data types
const (
	embeddingVectorPrefix = "embvec"
)

// contentIDWidth is the hex width of a content ID inside a key.
const contentIDWidth = 16

// makeVectorKey generates a key for a cached vector.
// Format: embvec:model:contentID (contentID as 16 hex digits)
func makeVectorKey(model string, id core.ID) []byte {
	return fmt.Appendf(nil, "%s:%s:%016x", embeddingVectorPrefix, model, uint64(id))
}

// makeModelPrefix generates the key prefix shared by all vectors of a model.
// Format: embvec:model:
func makeModelPrefix(model string) []byte {
	return fmt.Appendf(nil, "%s:%s:", embeddingVectorPrefix, model)
}

// parseVectorKey extracts the content ID from a key produced by makeVectorKey
// for model. Keys belonging to a different model that merely share the
// prefix (model "a" vs "a:b") are rejected.
func parseVectorKey(model string, key []byte) (core.ID, bool) {
	prefix := makeModelPrefix(model)
	if len(key) != len(prefix)+contentIDWidth || string(key[:len(prefix)]) != string(prefix) {
		return 0, false
	}
	id, err := strconv.ParseUint(string(key[len(prefix):]), 16, 64)
	if err != nil {
		return 0, false
	}
	return core.ID(id), true
}
