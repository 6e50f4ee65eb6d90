package mock

import (
	"context"
	"sync"

	"github.com/poiesic/lexrag/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

// MockGenerator is a test double for ai.Generator backed by langchaingo's
// fake LLM. Responses are returned in order and cycle when exhausted.
type MockGenerator struct {
	// GenerateFunc replaces the canned responses if set.
	GenerateFunc func(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error)

	llm *fake.LLM

	mu      sync.Mutex
	prompts []string
	opts    []ai.GenerateOptions
}

// NewMockGenerator creates a generator that replies with responses in order.
// With no responses every call fails.
func NewMockGenerator(responses ...string) *MockGenerator {
	return &MockGenerator{llm: fake.NewFakeLLM(responses)}
}

// Generate records the prompt and returns the next canned response.
func (m *MockGenerator) Generate(ctx context.Context, prompt string, opts ai.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, opts)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return llms.GenerateFromSinglePrompt(ctx, m.llm, prompt,
		llms.WithTemperature(opts.Temperature),
		llms.WithMaxTokens(opts.MaxTokens),
	)
}

// CallCount returns the number of Generate calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns every prompt passed to Generate.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// LastOptions returns the options of the most recent call.
func (m *MockGenerator) LastOptions() ai.GenerateOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opts) == 0 {
		return ai.GenerateOptions{}
	}
	return m.opts[len(m.opts)-1]
}
