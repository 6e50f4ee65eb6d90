package answer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/core"
)

// Retriever is the retrieval capability an Answerer needs.
// *retrieval.Retriever satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) (*core.RetrievalResult, error)
}

// Answer is a generated reply together with the evidence behind it.
type Answer struct {
	Text      string
	Retrieval *core.RetrievalResult
	Prompt    string // empty when the generator was not called
	Grounded  bool   // false when the answer is InsufficientEvidence
}

// Answerer answers questions about a case from retrieved knowledge.
type Answerer struct {
	retriever  Retriever
	generator  ai.Generator
	genOpts    ai.GenerateOptions
	promptOpts PromptOptions
	logger     *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
	}
}

// WithGenerateOptions sets sampling temperature and answer length.
func WithGenerateOptions(opts ai.GenerateOptions) Option {
	return func(a *Answerer) {
		a.genOpts = opts
	}
}

// WithPromptOptions sets the prompt size limits.
func WithPromptOptions(opts PromptOptions) Option {
	return func(a *Answerer) {
		a.promptOpts = opts
	}
}

// NewAnswerer creates an answerer.
func NewAnswerer(retriever Retriever, generator ai.Generator, opts ...Option) (*Answerer, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	a := &Answerer{
		retriever:  retriever,
		generator:  generator,
		genOpts:    ai.DefaultConfig().GenerateOptions(),
		promptOpts: DefaultPromptOptions(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "answerer")

	return a, nil
}

// Answer retrieves context for question and asks the generator for a short
// answer grounded in it and in caseText. When retrieval finds no matching
// label the generator is skipped and the answer is InsufficientEvidence.
func (a *Answerer) Answer(ctx context.Context, question, caseText string, topK int) (*Answer, error) {
	if strings.TrimSpace(caseText) == "" {
		return nil, ErrCaseTextRequired
	}
	if err := core.ValidateQuery(question, topK); err != nil {
		return nil, err
	}

	result, err := a.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	if !result.Found() {
		a.logger.Info("no supporting context, skipping generation")
		return &Answer{
			Text:      InsufficientEvidence,
			Retrieval: result,
		}, nil
	}

	prompt := BuildPrompt(question, result.Contexts(), caseText, a.promptOpts)
	text, err := a.generator.Generate(ctx, prompt, a.genOpts)
	if err != nil {
		a.logger.Error("error generating answer", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = InsufficientEvidence
	}

	label, _ := result.Label()
	a.logger.Debug("answer generated", "label", label, "score", result.Score(), "length", len(text))

	return &Answer{
		Text:      text,
		Retrieval: result,
		Prompt:    prompt,
		Grounded:  text != InsufficientEvidence,
	}, nil
}
