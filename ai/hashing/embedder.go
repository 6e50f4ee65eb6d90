package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"

	"github.com/poiesic/lexrag/ai"
)

// DefaultDimension matches the width of all-MiniLM-L6-v2 vectors.
const DefaultDimension = 384

// Embedder implements ai.Embedder with signed feature hashing.
type Embedder struct {
	dim    int
	logger *slog.Logger
}

var _ ai.Embedder = (*Embedder)(nil)

// NewEmbedder creates a hashing embedder producing vectors of length dim.
// A dim below 1 selects DefaultDimension.
func NewEmbedder(dim int) *Embedder {
	if dim < 1 {
		dim = DefaultDimension
	}
	return &Embedder{
		dim:    dim,
		logger: slog.Default().With("component", "hashing-embedder"),
	}
}

// EmbedText hashes the content words of text into a unit vector. Text with no
// content words yields the zero vector.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text), nil
}

// EmbedTexts embeds each text independently.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("hashing texts", "count", len(texts))
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.embed(text)
	}
	return out, nil
}

// ModelInfo identifies the hashing scheme and its width.
func (e *Embedder) ModelInfo() string {
	return fmt.Sprintf("hashing/fnv64a-%d", e.dim)
}

func (e *Embedder) embed(text string) []float32 {
	acc := make([]float64, e.dim)
	for _, token := range tokenize(text) {
		h := fnv.New64a()
		h.Write([]byte(token))
		sum := h.Sum64()

		idx := sum % uint64(e.dim)
		if sum>>63 == 1 {
			acc[idx]--
		} else {
			acc[idx]++
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	vec := make([]float32, e.dim)
	if norm == 0 {
		return vec
	}
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec
}
