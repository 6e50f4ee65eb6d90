package core

import (
	"encoding/binary"
	"fmt"
	"iter"
	"slices"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Label names a category of annotated legal text, e.g. "dowry_demand".
type Label string

// Chunk is a unit of annotated text belonging to exactly one label.
type Chunk string

// Vector is a fixed-dimension embedding of a piece of text.
type Vector []float32

// Section groups the chunks annotated with a single label.
// Chunk order is significant: it is the index used to address embeddings.
type Section struct {
	Label  Label
	Chunks []Chunk
}

// KnowledgeBase is an ordered, immutable mapping from label to chunks.
// Label order is the order in which sections were supplied (file order when loaded).
type KnowledgeBase struct {
	sections []Section
	byLabel  map[Label]int
	total    int
}

// NewKnowledgeBase validates the sections and returns an immutable knowledge base.
// The sections are copied; later changes by the caller are not observed.
func NewKnowledgeBase(sections ...Section) (*KnowledgeBase, error) {
	if err := ValidateSections(sections); err != nil {
		return nil, err
	}

	kb := &KnowledgeBase{
		sections: make([]Section, len(sections)),
		byLabel:  make(map[Label]int, len(sections)),
	}
	for i, s := range sections {
		kb.sections[i] = Section{Label: s.Label, Chunks: slices.Clone(s.Chunks)}
		kb.byLabel[s.Label] = i
		kb.total += len(s.Chunks)
	}
	return kb, nil
}

// Len returns the number of labels.
func (kb *KnowledgeBase) Len() int {
	return len(kb.sections)
}

// TotalChunks returns the number of chunks across all labels.
func (kb *KnowledgeBase) TotalChunks() int {
	return kb.total
}

// Labels returns the labels in knowledge-base order.
func (kb *KnowledgeBase) Labels() []Label {
	labels := make([]Label, len(kb.sections))
	for i, s := range kb.sections {
		labels[i] = s.Label
	}
	return labels
}

// Has reports whether the label exists.
func (kb *KnowledgeBase) Has(label Label) bool {
	_, ok := kb.byLabel[label]
	return ok
}

// Chunks returns a copy of the chunks for label, or nil if the label is unknown.
func (kb *KnowledgeBase) Chunks(label Label) []Chunk {
	i, ok := kb.byLabel[label]
	if !ok {
		return nil
	}
	return slices.Clone(kb.sections[i].Chunks)
}

// Chunk returns the chunk at position i under label.
func (kb *KnowledgeBase) Chunk(label Label, i int) (Chunk, bool) {
	s, ok := kb.byLabel[label]
	if !ok || i < 0 || i >= len(kb.sections[s].Chunks) {
		return "", false
	}
	return kb.sections[s].Chunks[i], true
}

// All iterates over labels and their chunks in knowledge-base order.
// The yielded slices must not be modified.
func (kb *KnowledgeBase) All() iter.Seq2[Label, []Chunk] {
	return func(yield func(Label, []Chunk) bool) {
		for _, s := range kb.sections {
			if !yield(s.Label, s.Chunks) {
				return
			}
		}
	}
}

// EmbeddingIndex holds one vector per chunk, grouped by label and positionally
// aligned with the knowledge base it was built from: the vector at index i of a
// label embeds the chunk at index i of that label.
type EmbeddingIndex struct {
	model     string
	dimension int
	labels    []Label
	vectors   [][]Vector
	byLabel   map[Label]int
}

// NewEmbeddingIndex assembles an index from per-label vectors listed in the
// same order as kb.Labels(). It fails with ErrIndexMisaligned if any label's
// vector count differs from its chunk count, and with ErrDimensionMismatch if
// the vectors do not share a single non-zero dimension.
func NewEmbeddingIndex(kb *KnowledgeBase, vectors [][]Vector, model string) (*EmbeddingIndex, error) {
	if kb == nil {
		return nil, fmt.Errorf("%w: knowledge base is nil", ErrIndexMisaligned)
	}
	if len(vectors) != kb.Len() {
		return nil, fmt.Errorf("%w: %d labels, %d vector groups", ErrIndexMisaligned, kb.Len(), len(vectors))
	}

	idx := &EmbeddingIndex{
		model:   model,
		labels:  make([]Label, 0, kb.Len()),
		vectors: make([][]Vector, 0, kb.Len()),
		byLabel: make(map[Label]int, kb.Len()),
	}

	i := 0
	for label, chunks := range kb.All() {
		group := vectors[i]
		if len(group) != len(chunks) {
			return nil, fmt.Errorf("%w: label %q has %d chunks but %d vectors",
				ErrIndexMisaligned, label, len(chunks), len(group))
		}
		for j, v := range group {
			if len(v) == 0 {
				return nil, fmt.Errorf("%w: label %q chunk %d has an empty vector", ErrDimensionMismatch, label, j)
			}
			if idx.dimension == 0 {
				idx.dimension = len(v)
			}
			if len(v) != idx.dimension {
				return nil, fmt.Errorf("%w: label %q chunk %d has dimension %d, expected %d",
					ErrDimensionMismatch, label, j, len(v), idx.dimension)
			}
		}
		idx.byLabel[label] = i
		idx.labels = append(idx.labels, label)
		idx.vectors = append(idx.vectors, group)
		i++
	}

	return idx, nil
}

// Model returns the identifier of the model that produced the vectors.
func (idx *EmbeddingIndex) Model() string {
	return idx.model
}

// Dimension returns the vector dimension.
func (idx *EmbeddingIndex) Dimension() int {
	return idx.dimension
}

// Len returns the number of labels.
func (idx *EmbeddingIndex) Len() int {
	return len(idx.labels)
}

// Vector returns the embedding of chunk i under label.
func (idx *EmbeddingIndex) Vector(label Label, i int) (Vector, bool) {
	s, ok := idx.byLabel[label]
	if !ok || i < 0 || i >= len(idx.vectors[s]) {
		return nil, false
	}
	return idx.vectors[s][i], true
}

// All iterates over labels and their vectors in knowledge-base order.
// The yielded slices must not be modified.
func (idx *EmbeddingIndex) All() iter.Seq2[Label, []Vector] {
	return func(yield func(Label, []Vector) bool) {
		for i, label := range idx.labels {
			if !yield(label, idx.vectors[i]) {
				return
			}
		}
	}
}

// Match is the winning label of a retrieval together with its ranked chunks.
type Match struct {
	Label        Label
	Score        float64   // Mean similarity of the selected chunks
	Contexts     []Chunk   // Chunk texts, highest similarity first
	Indices      []int     // Positions of Contexts within the label
	Similarities []float64 // Similarity of each entry in Contexts
}

// RetrievalResult is the outcome of a single query. A nil Match means no label
// scored above zero; this is a valid outcome meaning "insufficient evidence".
type RetrievalResult struct {
	Query string
	TopK  int
	Match *Match
}

// Found reports whether a label matched.
func (r *RetrievalResult) Found() bool {
	return r != nil && r.Match != nil
}

// Label returns the matched label, if any.
func (r *RetrievalResult) Label() (Label, bool) {
	if !r.Found() {
		return "", false
	}
	return r.Match.Label, true
}

// Score returns the matched label's score, or 0 when nothing matched.
func (r *RetrievalResult) Score() float64 {
	if !r.Found() {
		return 0
	}
	return r.Match.Score
}

// Contexts returns the ranked chunk texts, or an empty slice when nothing matched.
func (r *RetrievalResult) Contexts() []Chunk {
	if !r.Found() {
		return []Chunk{}
	}
	return r.Match.Contexts
}
