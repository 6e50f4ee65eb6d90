package hashing

import (
	"context"

	"github.com/poiesic/lexrag/ai"
)

// Provider implements ai.AIProvider with a hashing embedder and no generator.
type Provider struct {
	embedder  *Embedder
	generator unavailableGenerator
}

// NewProvider creates a hashing provider from config. Only Dimension is used.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Provider{embedder: NewEmbedder(config.Dimension)}, nil
}

// Embedder returns the hashing embedder.
func (p *Provider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns a generator that always fails with ai.ErrGeneratorUnavailable.
func (p *Provider) Generator() ai.Generator {
	return p.generator
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}

type unavailableGenerator struct{}

func (unavailableGenerator) Generate(context.Context, string, ai.GenerateOptions) (string, error) {
	return "", ai.ErrGeneratorUnavailable
}
