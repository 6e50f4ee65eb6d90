package retrieval

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/poiesic/lexrag/ai/hashing"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// embedFunc adapts a function to QueryEmbedder.
type embedFunc func(ctx context.Context, text string) (core.Vector, error)

func (f embedFunc) EmbedOne(ctx context.Context, text string) (core.Vector, error) {
	return f(ctx, text)
}

func fixedQuery(v core.Vector) embedFunc {
	return func(context.Context, string) (core.Vector, error) { return v, nil }
}

// unit returns a 2-d vector whose cosine similarity with (1, 0) is sim.
func unit(sim float64) core.Vector {
	return core.Vector{float32(sim), float32(math.Sqrt(1 - sim*sim))}
}

type section struct {
	label   core.Label
	vectors []core.Vector
}

// buildFixture creates a knowledge base with placeholder chunk text and an
// index holding the given vectors.
func buildFixture(t *testing.T, sections ...section) (*core.KnowledgeBase, *core.EmbeddingIndex) {
	t.Helper()
	kbSections := make([]core.Section, len(sections))
	groups := make([][]core.Vector, len(sections))
	for i, s := range sections {
		chunks := make([]core.Chunk, len(s.vectors))
		for j := range s.vectors {
			chunks[j] = core.Chunk(string(s.label) + " chunk " + string(rune('a'+j)))
		}
		kbSections[i] = core.Section{Label: s.label, Chunks: chunks}
		groups[i] = s.vectors
	}
	kb, err := core.NewKnowledgeBase(kbSections...)
	require.NoError(t, err)
	index, err := core.NewEmbeddingIndex(kb, groups, "test")
	require.NoError(t, err)
	return kb, index
}

func newFixtureRetriever(t *testing.T, query core.Vector, sections ...section) *Retriever {
	t.Helper()
	kb, index := buildFixture(t, sections...)
	r, err := NewRetriever(fixedQuery(query), index, kb)
	require.NoError(t, err)
	return r
}

func TestRetrieve_DowryExample(t *testing.T) {
	kb, err := knowledge.LoadBytes([]byte(
		`{"dowry_demand": ["He demanded gold from her family."], "physical_abuse": ["He hit her repeatedly."]}`,
	), "inline")
	require.NoError(t, err)

	store, err := knowledge.NewStore(hashing.NewEmbedder(0))
	require.NoError(t, err)
	defer store.Release()

	ctx := context.Background()
	index, err := store.BuildIndex(ctx, kb)
	require.NoError(t, err)

	r, err := NewRetriever(store, index, kb)
	require.NoError(t, err)

	result, err := r.Retrieve(ctx, "Was dowry demanded?", 1)
	require.NoError(t, err)

	label, ok := result.Label()
	require.True(t, ok)
	assert.Equal(t, core.Label("dowry_demand"), label)
	assert.Equal(t, []core.Chunk{"He demanded gold from her family."}, result.Contexts())

	q, err := store.EmbedOne(ctx, "Was dowry demanded?")
	require.NoError(t, err)
	other, err := store.EmbedOne(ctx, "He hit her repeatedly.")
	require.NoError(t, err)
	otherSim, err := core.CosineSimilarity(q, other)
	require.NoError(t, err)
	assert.Greater(t, result.Score(), otherSim)
}

func TestRetrieve_InvalidQuery(t *testing.T) {
	called := false
	kb, index := buildFixture(t, section{"a", []core.Vector{unit(1)}})
	r, err := NewRetriever(embedFunc(func(context.Context, string) (core.Vector, error) {
		called = true
		return unit(1), nil
	}), index, kb)
	require.NoError(t, err)

	tests := []struct {
		name    string
		query   string
		topK    int
		wantErr error
	}{
		{"empty query", "", 2, core.ErrEmptyQuery},
		{"whitespace query", " \t\n", 2, core.ErrEmptyQuery},
		{"zero top_k", "dowry", 0, core.ErrInvalidTopK},
		{"negative top_k", "dowry", -3, core.ErrInvalidTopK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Retrieve(context.Background(), tt.query, tt.topK)
			assert.ErrorIs(t, err, core.ErrInvalidQuery)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.False(t, called, "embedder must not run for invalid queries")
}

func TestRetrieve_TopKBeyondChunkCount(t *testing.T) {
	r := newFixtureRetriever(t, unit(1),
		section{"single", []core.Vector{unit(0.8)}},
		section{"weak", []core.Vector{unit(0.1), unit(0.2)}},
	)

	result, err := r.Retrieve(context.Background(), "q", 10)
	require.NoError(t, err)

	label, _ := result.Label()
	assert.Equal(t, core.Label("single"), label)
	assert.Equal(t, []core.Chunk{"single chunk a"}, result.Contexts())
	assert.InDelta(t, 0.8, result.Score(), 1e-6)
}

func TestRetrieve_TieGoesToFirstLabel(t *testing.T) {
	for _, order := range [][]core.Label{{"first", "second"}, {"second", "first"}} {
		r := newFixtureRetriever(t, unit(1),
			section{order[0], []core.Vector{unit(0.7)}},
			section{order[1], []core.Vector{unit(0.7)}},
		)

		for range 10 {
			result, err := r.Retrieve(context.Background(), "q", 1)
			require.NoError(t, err)
			label, ok := result.Label()
			require.True(t, ok)
			assert.Equal(t, order[0], label)
		}
	}
}

func TestRetrieve_NoLabelAboveZero(t *testing.T) {
	r := newFixtureRetriever(t, core.Vector{1, 0},
		section{"opposite", []core.Vector{{-1, 0}}},
		section{"orthogonal", []core.Vector{{0, 1}, {0, -1}}},
	)

	result, err := r.Retrieve(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.Nil(t, result.Match)
	assert.Zero(t, result.Score())
	assert.Empty(t, result.Contexts())
	assert.NotNil(t, result.Contexts())
}

func TestRetrieve_ZeroQueryVectorIsNoMatch(t *testing.T) {
	r := newFixtureRetriever(t, core.Vector{0, 0},
		section{"a", []core.Vector{unit(0.9)}},
	)

	result, err := r.Retrieve(context.Background(), "the of and", 2)
	require.NoError(t, err)
	assert.False(t, result.Found())
}

func TestRetrieve_RanksContextsAndAverages(t *testing.T) {
	r := newFixtureRetriever(t, unit(1),
		section{"a", []core.Vector{unit(0.2), unit(0.9), unit(0.5)}},
	)

	result, err := r.Retrieve(context.Background(), "q", 2)
	require.NoError(t, err)
	require.True(t, result.Found())

	assert.Equal(t, []int{1, 2}, result.Match.Indices)
	assert.Equal(t, []core.Chunk{"a chunk b", "a chunk c"}, result.Contexts())
	require.Len(t, result.Match.Similarities, 2)
	assert.InDelta(t, 0.9, result.Match.Similarities[0], 1e-6)
	assert.InDelta(t, 0.5, result.Match.Similarities[1], 1e-6)
	assert.InDelta(t, 0.7, result.Score(), 1e-6)
}

func TestRetrieve_EqualSimilaritiesKeepChunkOrder(t *testing.T) {
	r := newFixtureRetriever(t, unit(1),
		section{"a", []core.Vector{unit(0.3), unit(0.6), unit(0.6), unit(0.6)}},
	)

	result, err := r.Retrieve(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, result.Match.Indices)
}

func TestRetrieve_AverageNotMaximum(t *testing.T) {
	sections := []section{
		{"spiky", []core.Vector{unit(1), unit(0)}},
		{"steady", []core.Vector{unit(0.6), unit(0.6)}},
	}

	r := newFixtureRetriever(t, unit(1), sections...)

	result, err := r.Retrieve(context.Background(), "q", 2)
	require.NoError(t, err)
	label, _ := result.Label()
	assert.Equal(t, core.Label("steady"), label)

	result, err = r.Retrieve(context.Background(), "q", 1)
	require.NoError(t, err)
	label, _ = result.Label()
	assert.Equal(t, core.Label("spiky"), label)
}

func TestRetrieve_ResultBounds(t *testing.T) {
	kb, err := knowledge.Load("../knowledge/testdata/kb.json")
	require.NoError(t, err)
	store, err := knowledge.NewStore(hashing.NewEmbedder(64))
	require.NoError(t, err)
	defer store.Release()
	index, err := store.BuildIndex(context.Background(), kb)
	require.NoError(t, err)
	r, err := NewRetriever(store, index, kb)
	require.NoError(t, err)

	queries := []string{
		"Was dowry demanded?",
		"He hit her",
		"locked without food",
		"insulted in front of relatives",
		"unrelated zebra astronomy",
	}
	for _, query := range queries {
		for topK := 1; topK <= 4; topK++ {
			result, err := r.Retrieve(context.Background(), query, topK)
			require.NoError(t, err)

			label, ok := result.Label()
			if !ok {
				assert.Empty(t, result.Contexts())
				continue
			}
			assert.Greater(t, result.Score(), 0.0)
			assert.LessOrEqual(t, result.Score(), 1.0+1e-9)
			assert.LessOrEqual(t, len(result.Contexts()), topK)
			assert.Len(t, result.Contexts(), min(topK, len(kb.Chunks(label))))
			for _, c := range result.Contexts() {
				assert.Contains(t, kb.Chunks(label), c)
			}
		}
	}
}

func TestRetrieve_Idempotent(t *testing.T) {
	r := newFixtureRetriever(t, unit(1),
		section{"a", []core.Vector{unit(0.4), unit(0.5)}},
		section{"b", []core.Vector{unit(0.45), unit(0.3)}},
	)

	first, err := r.Retrieve(context.Background(), "q", 2)
	require.NoError(t, err)
	for range 5 {
		again, err := r.Retrieve(context.Background(), "q", 2)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRetrieve_EmbeddingError(t *testing.T) {
	kb, index := buildFixture(t, section{"a", []core.Vector{unit(1)}})
	boom := errors.New("model offline")
	r, err := NewRetriever(embedFunc(func(context.Context, string) (core.Vector, error) {
		return nil, errors.Join(core.ErrEmbedding, boom)
	}), index, kb)
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "q", 1)
	assert.ErrorIs(t, err, core.ErrEmbedding)
	assert.ErrorIs(t, err, boom)
}

func TestRetrieve_DimensionMismatch(t *testing.T) {
	r := newFixtureRetriever(t, core.Vector{1, 0, 0},
		section{"a", []core.Vector{unit(1)}},
	)

	_, err := r.Retrieve(context.Background(), "q", 1)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestRetrieve_CancelledContext(t *testing.T) {
	r := newFixtureRetriever(t, unit(1),
		section{"a", []core.Vector{unit(1)}},
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Retrieve(ctx, "q", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRetriever_RequiredArguments(t *testing.T) {
	kb, index := buildFixture(t, section{"a", []core.Vector{unit(1)}})

	_, err := NewRetriever(nil, index, kb)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
	_, err = NewRetriever(fixedQuery(unit(1)), nil, kb)
	assert.ErrorIs(t, err, ErrIndexRequired)
	_, err = NewRetriever(fixedQuery(unit(1)), index, nil)
	assert.ErrorIs(t, err, ErrKnowledgeBaseRequired)
}

func TestNewRetriever_Misaligned(t *testing.T) {
	_, index := buildFixture(t, section{"a", []core.Vector{unit(1)}})
	otherKB, _ := buildFixture(t, section{"b", []core.Vector{unit(1)}})
	biggerKB, _ := buildFixture(t, section{"a", []core.Vector{unit(1), unit(0.5)}})

	_, err := NewRetriever(fixedQuery(unit(1)), index, otherKB)
	assert.ErrorIs(t, err, core.ErrIndexMisaligned)
	_, err = NewRetriever(fixedQuery(unit(1)), index, biggerKB)
	assert.ErrorIs(t, err, core.ErrIndexMisaligned)
}

type recordingMonitor struct {
	started bool
	scored  []core.Label
	bests   []core.Label
	result  *core.RetrievalResult
}

func (m *recordingMonitor) Start(string, int)       { m.started = true }
func (m *recordingMonitor) AfterQueryEmbedding(int) {}
func (m *recordingMonitor) LabelScored(label core.Label, _ float64, _ []int, _ []float64) {
	m.scored = append(m.scored, label)
}
func (m *recordingMonitor) NewBest(label core.Label, _ float64) { m.bests = append(m.bests, label) }
func (m *recordingMonitor) Finish(result *core.RetrievalResult) { m.result = result }

func TestRetrieveWithMonitor(t *testing.T) {
	r := newFixtureRetriever(t, unit(1),
		section{"low", []core.Vector{unit(0.2)}},
		section{"negative", []core.Vector{unit(-0.5)}},
		section{"high", []core.Vector{unit(0.9)}},
		section{"equal", []core.Vector{unit(0.9)}},
	)

	m := &recordingMonitor{}
	result, err := r.RetrieveWithMonitor(context.Background(), "q", 1, m)
	require.NoError(t, err)

	assert.True(t, m.started)
	assert.Equal(t, []core.Label{"low", "negative", "high", "equal"}, m.scored)
	assert.Equal(t, []core.Label{"low", "high"}, m.bests)
	assert.Same(t, result, m.result)
}

func TestTraceMonitor(t *testing.T) {
	r := newFixtureRetriever(t, unit(1),
		section{"dowry_demand", []core.Vector{unit(0.9)}},
	)

	var buf bytes.Buffer
	_, err := r.RetrieveWithMonitor(context.Background(), "Was dowry demanded?", 1, NewTraceMonitor(&buf))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `query: "Was dowry demanded?" top_k=1`)
	assert.Contains(t, out, "new best dowry_demand")
	assert.Contains(t, out, "best: dowry_demand")
}
