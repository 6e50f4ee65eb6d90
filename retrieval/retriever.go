package retrieval

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/lexrag/core"
)

// DefaultTopK is the number of chunks averaged per label when the caller
// has no preference.
const DefaultTopK = 2

// QueryEmbedder turns a query into a vector in the same space as the index.
// *knowledge.Store satisfies it.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) (core.Vector, error)
}

// Retriever finds the best-matching label for a query.
type Retriever struct {
	embedder QueryEmbedder
	index    *core.EmbeddingIndex
	kb       *core.KnowledgeBase
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a retriever over an index built from kb.
// The index must be aligned with kb label for label.
func NewRetriever(embedder QueryEmbedder, index *core.EmbeddingIndex, kb *core.KnowledgeBase, opts ...Option) (*Retriever, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if kb == nil {
		return nil, ErrKnowledgeBaseRequired
	}
	if err := checkAligned(index, kb); err != nil {
		return nil, err
	}

	r := &Retriever{
		embedder: embedder,
		index:    index,
		kb:       kb,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Retrieve returns the label whose top-k chunks are most similar to query.
// A result without a match is a success meaning no label scored above zero.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) (*core.RetrievalResult, error) {
	return r.RetrieveWithMonitor(ctx, query, topK, nil)
}

// RetrieveWithMonitor is Retrieve with callbacks at each scoring step.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, query string, topK int, monitor RetrievalMonitor) (*core.RetrievalResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if err := core.ValidateQuery(query, topK); err != nil {
		return nil, err
	}
	monitor.Start(query, topK)

	q, err := r.embedder.EmbedOne(ctx, query)
	if err != nil {
		r.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}
	if len(q) != r.index.Dimension() {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			core.ErrDimensionMismatch, len(q), r.index.Dimension())
	}
	monitor.AfterQueryEmbedding(len(q))

	var (
		best      *core.Match
		bestScore = 0.0
	)
	for label, vectors := range r.index.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, indices, sims, err := scoreLabel(q, vectors, topK)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", label, err)
		}
		monitor.LabelScored(label, score, indices, sims)

		if score > bestScore {
			bestScore = score
			best = &core.Match{
				Label:        label,
				Score:        score,
				Indices:      indices,
				Similarities: sims,
			}
			monitor.NewBest(label, score)
		}
	}

	if best != nil {
		best.Contexts = make([]core.Chunk, len(best.Indices))
		for i, idx := range best.Indices {
			best.Contexts[i], _ = r.kb.Chunk(best.Label, idx)
		}
	}

	result := &core.RetrievalResult{Query: query, TopK: topK, Match: best}
	if best != nil {
		r.logger.Debug("retrieved", "label", best.Label, "score", best.Score, "contexts", len(best.Contexts))
	} else {
		r.logger.Debug("no label scored above zero", "labels", r.index.Len())
	}
	monitor.Finish(result)

	return result, nil
}

// scoreLabel ranks a label's chunk vectors against q and averages the
// min(topK, n) best. Equal similarities keep the lower chunk index first.
func scoreLabel(q core.Vector, vectors []core.Vector, topK int) (float64, []int, []float64, error) {
	sims := make([]float64, len(vectors))
	for i, v := range vectors {
		sim, err := core.CosineSimilarity(q, v)
		if err != nil {
			return 0, nil, nil, err
		}
		sims[i] = sim
	}

	order := make([]int, len(sims))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(sims[b], sims[a])
	})

	k := min(topK, len(order))
	indices := order[:k:k]
	selected := make([]float64, k)
	var sum float64
	for i, idx := range indices {
		selected[i] = sims[idx]
		sum += sims[idx]
	}
	if k == 0 {
		return 0, indices, selected, nil
	}
	return sum / float64(k), indices, selected, nil
}

// checkAligned verifies that index and kb list the same labels in the same
// order with matching chunk counts.
func checkAligned(index *core.EmbeddingIndex, kb *core.KnowledgeBase) error {
	if index.Len() != kb.Len() {
		return fmt.Errorf("%w: index has %d labels, knowledge base has %d",
			core.ErrIndexMisaligned, index.Len(), kb.Len())
	}
	labels := kb.Labels()
	i := 0
	for label, vectors := range index.All() {
		if label != labels[i] {
			return fmt.Errorf("%w: position %d is %q in index, %q in knowledge base",
				core.ErrIndexMisaligned, i, label, labels[i])
		}
		if n := len(kb.Chunks(label)); n != len(vectors) {
			return fmt.Errorf("%w: label %q has %d chunks, %d vectors",
				core.ErrIndexMisaligned, label, n, len(vectors))
		}
		i++
	}
	return nil
}
