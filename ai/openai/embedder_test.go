package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/lexrag/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
)

func fixedClient(calls *[][]string) embeddings.EmbedderClientFunc {
	return func(_ context.Context, texts []string) ([][]float32, error) {
		*calls = append(*calls, texts)
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = []float32{float32(len(text)), 1}
		}
		return out, nil
	}
}

func TestEmbedder_EmbedText(t *testing.T) {
	var calls [][]string
	e, err := newEmbedderWithClient(fixedClient(&calls), "all-minilm")
	require.NoError(t, err)

	vec, err := e.EmbedText(context.Background(), "dowry\ndemand")
	require.NoError(t, err)
	assert.Equal(t, []float32{12, 1}, vec)

	require.Len(t, calls, 1)
	assert.Equal(t, []string{"dowry demand"}, calls[0], "newlines are stripped before embedding")
}

func TestEmbedder_EmbedTextsPreservesOrder(t *testing.T) {
	var calls [][]string
	e, err := newEmbedderWithClient(fixedClient(&calls), "all-minilm")
	require.NoError(t, err)

	vecs, err := e.EmbedTexts(context.Background(), []string{"a", "bbb", "cc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(3), vecs[1][0])
	assert.Equal(t, float32(2), vecs[2][0])
}

func TestEmbedder_SingleMatchesBatch(t *testing.T) {
	var calls [][]string
	e, err := newEmbedderWithClient(fixedClient(&calls), "all-minilm")
	require.NoError(t, err)

	single, err := e.EmbedText(context.Background(), "cruelty")
	require.NoError(t, err)
	batch, err := e.EmbedTexts(context.Background(), []string{"cruelty"})
	require.NoError(t, err)
	assert.Equal(t, batch[0], single)
}

func TestEmbedder_ClientError(t *testing.T) {
	boom := errors.New("connection refused")
	client := embeddings.EmbedderClientFunc(func(context.Context, []string) ([][]float32, error) {
		return nil, boom
	})
	e, err := newEmbedderWithClient(client, "all-minilm")
	require.NoError(t, err)

	_, err = e.EmbedText(context.Background(), "text")
	assert.ErrorIs(t, err, boom)
}

func TestEmbedder_ModelInfo(t *testing.T) {
	var calls [][]string
	e, err := newEmbedderWithClient(fixedClient(&calls), "all-minilm")
	require.NoError(t, err)
	assert.Equal(t, "openai/all-minilm", e.ModelInfo())
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	cfg := ai.NewConfig(ai.WithEmbeddingModel(""))
	_, err := NewEmbedder(cfg)
	assert.Error(t, err)
}
