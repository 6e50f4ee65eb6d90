package lexrag

import (
	"fmt"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/ai/hashing"
	"github.com/poiesic/lexrag/ai/openai"
)

// NewProvider creates the AI provider selected by config.Provider.
func NewProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Provider {
	case ai.ProviderOpenAI:
		return openai.NewProvider(config)
	case ai.ProviderHashing:
		return hashing.NewProvider(config)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", config.Provider)
	}
}
