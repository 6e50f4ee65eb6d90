// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package lexrag

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/answer"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/knowledge"
	"github.com/poiesic/lexrag/retrieval"
	"github.com/poiesic/lexrag/storage"
	"github.com/poiesic/lexrag/storage/badger"
)

// Engine is the loaded, indexed knowledge base together with the services
// that query it. It is built once at startup and is safe for concurrent
// Retrieve and Answer calls.
type Engine struct {
	config    *Config
	kb        *core.KnowledgeBase
	index     *core.EmbeddingIndex
	provider  ai.AIProvider
	cache     storage.EmbeddingCache
	store     *knowledge.Store
	retriever *retrieval.Retriever
	answerer  *answer.Answerer
	owned     []io.Closer
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider   ai.AIProvider
	cache      storage.EmbeddingCache
	kb         *core.KnowledgeBase
	progress   io.Writer
	purgeCache bool
	logger     *slog.Logger
}

// WithProvider uses provider instead of creating one from the config.
// The caller keeps ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithCache uses cache instead of opening Config.CachePath.
// The caller keeps ownership and closes it.
func WithCache(cache storage.EmbeddingCache) EngineOption {
	return func(o *engineOptions) {
		o.cache = cache
	}
}

// WithKnowledgeBase uses kb instead of loading Config.KnowledgeBase.
func WithKnowledgeBase(kb *core.KnowledgeBase) EngineOption {
	return func(o *engineOptions) {
		o.kb = kb
	}
}

// WithProgress reports index build progress to w.
func WithProgress(w io.Writer) EngineOption {
	return func(o *engineOptions) {
		o.progress = w
	}
}

// WithPurgeCache drops cached vectors of the configured model before the
// index is built, forcing every chunk to be re-embedded.
func WithPurgeCache() EngineOption {
	return func(o *engineOptions) {
		o.purgeCache = true
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine loads the knowledge base, builds its embedding index and wires
// the retriever and answerer. A nil config selects DefaultConfig().
func NewEngine(ctx context.Context, config *Config, opts ...EngineOption) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config: config,
		logger: options.logger.With("component", "engine"),
	}

	if err := e.init(ctx, options); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) init(ctx context.Context, options *engineOptions) error {
	var err error

	e.kb = options.kb
	if e.kb == nil {
		e.kb, err = knowledge.Load(e.config.KnowledgeBase)
		if err != nil {
			return err
		}
	}
	e.logger.Info("knowledge base loaded", "labels", e.kb.Len(), "chunks", e.kb.TotalChunks())

	e.provider = options.provider
	if e.provider == nil {
		e.provider, err = NewProvider(&e.config.AI)
		if err != nil {
			return err
		}
		e.owned = append(e.owned, e.provider)
	}

	e.cache = options.cache
	if e.cache == nil && e.config.CachePath != "" {
		e.cache, err = badger.OpenCache(e.config.CachePath)
		if err != nil {
			return err
		}
		e.owned = append(e.owned, e.cache)
	}

	model := e.provider.Embedder().ModelInfo()
	if options.purgeCache && e.cache != nil {
		n, err := e.cache.PurgeModel(ctx, model)
		if err != nil {
			return err
		}
		e.logger.Info("embedding cache purged", "model", model, "vectors", n)
	}

	storeOpts := []knowledge.Option{
		knowledge.WithLogger(options.logger),
		knowledge.WithBatchSize(e.config.BatchSize),
		knowledge.WithRetry(e.config.MaxAttempts, e.config.RetryDelay),
		knowledge.WithMaxInputTokens(e.config.AI.MaxInputTokens),
	}
	if e.config.PoolSize > 0 {
		storeOpts = append(storeOpts, knowledge.WithPoolSize(e.config.PoolSize))
	}
	if e.cache != nil {
		storeOpts = append(storeOpts, knowledge.WithCache(e.cache))
	}
	if options.progress != nil {
		storeOpts = append(storeOpts, knowledge.WithProgress(options.progress, e.config.BatchSize))
	}

	e.store, err = knowledge.NewStore(e.provider.Embedder(), storeOpts...)
	if err != nil {
		return err
	}

	e.index, err = e.store.BuildIndex(ctx, e.kb)
	if err != nil {
		return err
	}

	e.retriever, err = retrieval.NewRetriever(e.store, e.index, e.kb, retrieval.WithLogger(options.logger))
	if err != nil {
		return err
	}

	e.answerer, err = answer.NewAnswerer(e.retriever, e.provider.Generator(),
		answer.WithLogger(options.logger),
		answer.WithGenerateOptions(e.config.AI.GenerateOptions()),
		answer.WithPromptOptions(e.config.Prompt),
	)
	return err
}

// Close releases the worker pool and any provider or cache the engine opened.
func (e *Engine) Close() error {
	if e.store != nil {
		e.store.Release()
	}

	var errs []error
	for i := len(e.owned) - 1; i >= 0; i-- {
		if err := e.owned[i].Close(); err != nil {
			e.logger.Error("error closing resource", "err", err)
			errs = append(errs, err)
		}
	}
	e.owned = nil
	return errors.Join(errs...)
}

// Retrieve returns the best-matching label for query.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int) (*core.RetrievalResult, error) {
	return e.retriever.Retrieve(ctx, query, topK)
}

// RetrieveWithMonitor is Retrieve with scoring callbacks.
func (e *Engine) RetrieveWithMonitor(ctx context.Context, query string, topK int, monitor retrieval.RetrievalMonitor) (*core.RetrievalResult, error) {
	return e.retriever.RetrieveWithMonitor(ctx, query, topK, monitor)
}

// Answer answers question about caseText from retrieved knowledge.
func (e *Engine) Answer(ctx context.Context, question, caseText string, topK int) (*answer.Answer, error) {
	return e.answerer.Answer(ctx, question, caseText, topK)
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() *Config {
	return e.config
}

// KnowledgeBase returns the loaded knowledge base.
func (e *Engine) KnowledgeBase() *core.KnowledgeBase {
	return e.kb
}

// Index returns the embedding index built at startup, aligned with KnowledgeBase.
func (e *Engine) Index() *core.EmbeddingIndex {
	return e.index
}

// Store returns the embedding store used for queries.
func (e *Engine) Store() *knowledge.Store {
	return e.store
}
