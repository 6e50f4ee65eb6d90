package answer

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/ai/mock"
	"github.com/poiesic/lexrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type retrieverFunc func(ctx context.Context, query string, topK int) (*core.RetrievalResult, error)

func (f retrieverFunc) Retrieve(ctx context.Context, query string, topK int) (*core.RetrievalResult, error) {
	return f(ctx, query, topK)
}

func matching(label core.Label, contexts ...core.Chunk) retrieverFunc {
	return func(_ context.Context, query string, topK int) (*core.RetrievalResult, error) {
		return &core.RetrievalResult{
			Query: query,
			TopK:  topK,
			Match: &core.Match{Label: label, Score: 0.62, Contexts: contexts},
		}, nil
	}
}

func noMatch() retrieverFunc {
	return func(_ context.Context, query string, topK int) (*core.RetrievalResult, error) {
		return &core.RetrievalResult{Query: query, TopK: topK}, nil
	}
}

func TestNewAnswerer_RequiredArguments(t *testing.T) {
	_, err := NewAnswerer(nil, mock.NewMockGenerator())
	assert.ErrorIs(t, err, ErrRetrieverRequired)

	_, err = NewAnswerer(noMatch(), nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)
}

func TestAnswer_Grounded(t *testing.T) {
	gen := mock.NewMockGenerator("  Yes. Gold was demanded from the wife's family.  ")
	genOpts := ai.GenerateOptions{Temperature: 0.3, MaxTokens: 250}
	a, err := NewAnswerer(matching("dowry_demand", "He demanded gold from her family."), gen,
		WithGenerateOptions(genOpts))
	require.NoError(t, err)

	ans, err := a.Answer(context.Background(), "Is there any demand for dowry?", "Case text.", 2)
	require.NoError(t, err)

	assert.Equal(t, "Yes. Gold was demanded from the wife's family.", ans.Text)
	assert.True(t, ans.Grounded)
	assert.Equal(t, core.Label("dowry_demand"), ans.Retrieval.Match.Label)
	assert.Contains(t, ans.Prompt, "He demanded gold from her family.")
	assert.Contains(t, ans.Prompt, "Case text.")

	require.Equal(t, 1, gen.CallCount())
	assert.Equal(t, ans.Prompt, gen.Prompts()[0])
	assert.Equal(t, genOpts, gen.LastOptions())
}

func TestAnswer_NoMatchSkipsGenerator(t *testing.T) {
	gen := mock.NewMockGenerator("should not be used")
	a, err := NewAnswerer(noMatch(), gen)
	require.NoError(t, err)

	ans, err := a.Answer(context.Background(), "Was there cruelty?", "Case text.", 2)
	require.NoError(t, err)

	assert.Equal(t, InsufficientEvidence, ans.Text)
	assert.False(t, ans.Grounded)
	assert.Empty(t, ans.Prompt)
	assert.False(t, ans.Retrieval.Found())
	assert.Zero(t, gen.CallCount())
}

func TestAnswer_GeneratorDeclines(t *testing.T) {
	for _, reply := range []string{InsufficientEvidence, "   "} {
		gen := mock.NewMockGenerator(reply)
		a, err := NewAnswerer(matching("cruelty", "x"), gen)
		require.NoError(t, err)

		ans, err := a.Answer(context.Background(), "q", "case", 1)
		require.NoError(t, err)
		assert.Equal(t, InsufficientEvidence, ans.Text)
		assert.False(t, ans.Grounded)
	}
}

func TestAnswer_MissingCaseText(t *testing.T) {
	gen := mock.NewMockGenerator("x")
	a, err := NewAnswerer(matching("a", "x"), gen)
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), "q", "  \n", 2)
	assert.ErrorIs(t, err, ErrCaseTextRequired)
	assert.Zero(t, gen.CallCount())
}

func TestAnswer_InvalidQuestion(t *testing.T) {
	called := false
	a, err := NewAnswerer(retrieverFunc(func(context.Context, string, int) (*core.RetrievalResult, error) {
		called = true
		return nil, nil
	}), mock.NewMockGenerator("x"))
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), " ", "case", 2)
	assert.ErrorIs(t, err, core.ErrInvalidQuery)
	assert.False(t, called)
}

func TestAnswer_RetrievalError(t *testing.T) {
	a, err := NewAnswerer(retrieverFunc(func(context.Context, string, int) (*core.RetrievalResult, error) {
		return nil, core.ErrEmbedding
	}), mock.NewMockGenerator("x"))
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), "q", "case", 2)
	assert.ErrorIs(t, err, core.ErrEmbedding)
}

func TestAnswer_GeneratorError(t *testing.T) {
	gen := mock.NewMockGenerator()
	boom := errors.New("timeout")
	gen.GenerateFunc = func(context.Context, string, ai.GenerateOptions) (string, error) {
		return "", boom
	}
	a, err := NewAnswerer(matching("a", "x"), gen)
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), "q", "case", 2)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.ErrorIs(t, err, boom)
}

func TestAnswer_GeneratorUnavailable(t *testing.T) {
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(context.Context, string, ai.GenerateOptions) (string, error) {
		return "", ai.ErrGeneratorUnavailable
	}
	a, err := NewAnswerer(matching("a", "x"), gen)
	require.NoError(t, err)

	_, err = a.Answer(context.Background(), "q", "case", 2)
	assert.ErrorIs(t, err, ai.ErrGeneratorUnavailable)
}
