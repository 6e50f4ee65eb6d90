package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "short content", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)
			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	if IDFromContent("content1") == IDFromContent("content2") {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func sampleKnowledgeBase(t *testing.T) *KnowledgeBase {
	t.Helper()
	kb, err := NewKnowledgeBase(
		Section{Label: "physical_abuse", Chunks: []Chunk{"He hit her repeatedly.", "She was slapped."}},
		Section{Label: "dowry_demand", Chunks: []Chunk{"He demanded gold from her family."}},
	)
	require.NoError(t, err)
	return kb
}

func TestKnowledgeBase_PreservesOrder(t *testing.T) {
	kb := sampleKnowledgeBase(t)

	assert.Equal(t, 2, kb.Len())
	assert.Equal(t, 3, kb.TotalChunks())
	assert.Equal(t, []Label{"physical_abuse", "dowry_demand"}, kb.Labels())
	assert.Equal(t, []Chunk{"He hit her repeatedly.", "She was slapped."}, kb.Chunks("physical_abuse"))

	c, ok := kb.Chunk("physical_abuse", 1)
	require.True(t, ok)
	assert.Equal(t, Chunk("She was slapped."), c)

	_, ok = kb.Chunk("physical_abuse", 2)
	assert.False(t, ok)
	assert.Nil(t, kb.Chunks("unknown"))
	assert.False(t, kb.Has("unknown"))
}

func TestKnowledgeBase_IsImmutable(t *testing.T) {
	chunks := []Chunk{"original"}
	kb, err := NewKnowledgeBase(Section{Label: "a", Chunks: chunks})
	require.NoError(t, err)

	chunks[0] = "changed"
	got := kb.Chunks("a")
	assert.Equal(t, Chunk("original"), got[0])

	got[0] = "changed again"
	assert.Equal(t, Chunk("original"), kb.Chunks("a")[0])
}

func TestKnowledgeBase_Invalid(t *testing.T) {
	_, err := NewKnowledgeBase(Section{Label: "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyChunkList)
}

func TestNewEmbeddingIndex(t *testing.T) {
	kb := sampleKnowledgeBase(t)

	t.Run("aligned", func(t *testing.T) {
		idx, err := NewEmbeddingIndex(kb, [][]Vector{
			{{1, 0}, {0, 1}},
			{{1, 1}},
		}, "test-model")
		require.NoError(t, err)
		assert.Equal(t, 2, idx.Dimension())
		assert.Equal(t, "test-model", idx.Model())
		assert.Equal(t, 2, idx.Len())

		v, ok := idx.Vector("physical_abuse", 1)
		require.True(t, ok)
		assert.Equal(t, Vector{0, 1}, v)

		var labels []Label
		for label := range idx.All() {
			labels = append(labels, label)
		}
		assert.Equal(t, kb.Labels(), labels)
	})

	t.Run("wrong group count", func(t *testing.T) {
		_, err := NewEmbeddingIndex(kb, [][]Vector{{{1, 0}, {0, 1}}}, "m")
		assert.ErrorIs(t, err, ErrIndexMisaligned)
	})

	t.Run("wrong vector count", func(t *testing.T) {
		_, err := NewEmbeddingIndex(kb, [][]Vector{{{1, 0}}, {{1, 1}}}, "m")
		assert.ErrorIs(t, err, ErrIndexMisaligned)
	})

	t.Run("mixed dimensions", func(t *testing.T) {
		_, err := NewEmbeddingIndex(kb, [][]Vector{{{1, 0}, {0, 1, 0}}, {{1, 1}}}, "m")
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("empty vector", func(t *testing.T) {
		_, err := NewEmbeddingIndex(kb, [][]Vector{{{1, 0}, {}}, {{1, 1}}}, "m")
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestRetrievalResult_NoMatch(t *testing.T) {
	r := &RetrievalResult{Query: "q", TopK: 2}

	assert.False(t, r.Found())
	_, ok := r.Label()
	assert.False(t, ok)
	assert.Equal(t, 0.0, r.Score())
	assert.NotNil(t, r.Contexts())
	assert.Empty(t, r.Contexts())
}

func TestRetrievalResult_Match(t *testing.T) {
	r := &RetrievalResult{
		Query: "q",
		TopK:  1,
		Match: &Match{Label: "a", Score: 0.5, Contexts: []Chunk{"x"}, Indices: []int{0}, Similarities: []float64{0.5}},
	}

	assert.True(t, r.Found())
	label, ok := r.Label()
	assert.True(t, ok)
	assert.Equal(t, Label("a"), label)
	assert.Equal(t, 0.5, r.Score())
	assert.Equal(t, []Chunk{"x"}, r.Contexts())
}
