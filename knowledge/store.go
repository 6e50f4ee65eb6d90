package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/storage"
)

const (
	// DefaultBatchSize is the number of chunks sent to the embedder per request.
	DefaultBatchSize = 32

	// DefaultMaxAttempts is the number of tries per batch before the build fails.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the delay before the first retry. It doubles per attempt.
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxInputTokens matches the input window of all-MiniLM-L6-v2.
	DefaultMaxInputTokens = 256
)

// Store turns text into vectors for one embedding model. It embeds queries
// one at a time and whole knowledge bases concurrently, reusing vectors from
// an optional cache.
type Store struct {
	embedder         ai.Embedder
	cache            storage.EmbeddingCache
	pool             *ants.Pool
	poolSize         int
	batchSize        int
	maxAttempts      int
	retryDelay       time.Duration
	maxInputTokens   int
	progress         io.Writer
	progressInterval int
	logger           *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithCache reuses and records chunk vectors in cache.
func WithCache(cache storage.EmbeddingCache) Option {
	return func(s *Store) error {
		s.cache = cache
		return nil
	}
}

// WithPoolSize sets the worker pool size for index builds.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Store) error {
		s.poolSize = max(size, 1)
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per request.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(s *Store) error {
		s.batchSize = max(size, 1)
		return nil
	}
}

// WithRetry sets how often a failed batch is attempted and the initial backoff.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(s *Store) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		s.maxAttempts = maxAttempts
		s.retryDelay = delay
		return nil
	}
}

// WithProgress prints build progress to w every interval chunks.
func WithProgress(w io.Writer, interval int) Option {
	return func(s *Store) error {
		s.progress = w
		s.progressInterval = interval
		return nil
	}
}

// WithMaxInputTokens sets the truncation limit, in whitespace-delimited
// words, applied before embedding. 0 disables truncation.
func WithMaxInputTokens(n int) Option {
	return func(s *Store) error {
		if n < 0 {
			return fmt.Errorf("max input tokens cannot be negative: %d", n)
		}
		s.maxInputTokens = n
		return nil
	}
}

// NewStore creates an embedding store over embedder.
// Call Release when the store is no longer needed.
func NewStore(embedder ai.Embedder, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Store{
		embedder:         embedder,
		poolSize:         max(runtime.NumCPU()/2, 1),
		batchSize:        DefaultBatchSize,
		maxAttempts:      DefaultMaxAttempts,
		retryDelay:       DefaultRetryDelay,
		maxInputTokens:   DefaultMaxInputTokens,
		progressInterval: DefaultBatchSize,
		logger:           slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	pool, err := ants.NewPool(s.poolSize)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	s.logger = s.logger.With("component", "embedding-store")

	return s, nil
}

// Model identifies the embedding model behind the store.
func (s *Store) Model() string {
	return s.embedder.ModelInfo()
}

// Release stops the worker pool. The store must not be used afterwards.
func (s *Store) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// EmbedOne embeds a single text, typically a query. Blank text fails with
// core.ErrEmbedding. Text beyond the token limit is truncated first.
func (s *Store) EmbedOne(ctx context.Context, text string) (core.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %w", core.ErrEmbedding, core.ErrEmptyText)
	}

	vectors, _, err := s.embed(ctx, []string{text}, false)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type chunkPos struct {
	label int
	chunk int
}

// BuildIndex embeds every chunk of kb and returns an index aligned with it.
// Batches run concurrently on the store's pool. The first failing batch
// cancels the rest. Cancelling ctx aborts the build with ctx.Err().
func (s *Store) BuildIndex(ctx context.Context, kb *core.KnowledgeBase) (*core.EmbeddingIndex, error) {
	if kb == nil {
		return nil, fmt.Errorf("%w: knowledge base is nil", core.ErrIndexMisaligned)
	}

	start := time.Now()
	vectors := make([][]core.Vector, kb.Len())
	positions := make([]chunkPos, 0, kb.TotalChunks())
	texts := make([]string, 0, kb.TotalChunks())

	l := 0
	for _, chunks := range kb.All() {
		vectors[l] = make([]core.Vector, len(chunks))
		for c, chunk := range chunks {
			positions = append(positions, chunkPos{label: l, chunk: c})
			texts = append(texts, string(chunk))
		}
		l++
	}

	s.logger.Info("building embedding index",
		"labels", kb.Len(), "chunks", len(texts), "model", s.Model(),
		"batchSize", s.batchSize, "poolSize", s.poolSize)

	var tracker *ProgressTracker
	if s.progress != nil {
		tracker = NewProgressTracker(s.progress, len(texts), s.progressInterval)
		tracker.Start()
	}

	buildCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		buildErr error
		cachedMu sync.Mutex
		cached   int
	)
	fail := func(err error) {
		errOnce.Do(func() {
			buildErr = err
			cancel()
		})
	}

	for begin := 0; begin < len(texts); begin += s.batchSize {
		end := min(begin+s.batchSize, len(texts))
		batchTexts := texts[begin:end]
		batchPos := positions[begin:end]

		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			if buildCtx.Err() != nil {
				return
			}

			batchVectors, hits, err := s.embed(buildCtx, batchTexts, true)
			if err != nil {
				s.logger.Error("batch embedding failed", "first", begin, "size", len(batchTexts), "err", err)
				fail(err)
				return
			}
			for k, pos := range batchPos {
				vectors[pos.label][pos.chunk] = batchVectors[k]
			}

			cachedMu.Lock()
			cached += hits
			cachedMu.Unlock()
			if tracker != nil {
				tracker.IncrementCached(hits)
				tracker.Increment(len(batchTexts) - hits)
			}
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
			break
		}
	}
	wg.Wait()

	if tracker != nil && (ctx.Err() != nil || buildErr != nil) {
		tracker.Abort()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if buildErr != nil {
		return nil, buildErr
	}

	index, err := core.NewEmbeddingIndex(kb, vectors, s.Model())
	if err != nil {
		return nil, err
	}

	if tracker != nil {
		tracker.Finish()
	}
	s.logger.Info("embedding index built",
		"labels", index.Len(), "chunks", len(texts), "dimension", index.Dimension(),
		"cached", cached, "elapsed", time.Since(start))

	return index, nil
}

// embed returns one normalised vector per text, serving what it can from
// the cache. With writeBack set, freshly computed vectors are cached.
// The int result counts cache hits.
func (s *Store) embed(ctx context.Context, texts []string, writeBack bool) ([]core.Vector, int, error) {
	model := s.Model()
	inputs := make([]string, len(texts))
	ids := make([]core.ID, len(texts))
	for i, text := range texts {
		input, truncated := ai.TruncateInput(text, s.maxInputTokens)
		if truncated {
			s.logger.Debug("input truncated", "maxTokens", s.maxInputTokens, "length", len(text))
		}
		inputs[i] = input
		ids[i] = core.IDFromContent(input)
	}

	out := make([]core.Vector, len(texts))

	var hits map[core.ID]core.Vector
	if s.cache != nil {
		var err error
		hits, err = s.cache.GetVectors(ctx, model, ids...)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, 0, ctxErr
			}
			s.logger.Warn("embedding cache read failed", "err", err)
			hits = nil
		}
	}

	var missing []int
	for i, id := range ids {
		if v, ok := hits[id]; ok && len(v) > 0 {
			out[i] = v
			continue
		}
		missing = append(missing, i)
	}
	hitCount := len(texts) - len(missing)

	if len(missing) == 0 {
		return out, hitCount, nil
	}

	missTexts := make([]string, len(missing))
	for k, i := range missing {
		missTexts[k] = inputs[i]
	}

	var fresh [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var embedErr error
		fresh, embedErr = s.embedder.EmbedTexts(ctx, missTexts)
		if embedErr != nil {
			return embedErr
		}
		if len(fresh) != len(missTexts) {
			return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(missTexts), len(fresh))
		}
		return nil
	}, s.maxAttempts, s.retryDelay)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("%w: %w", core.ErrEmbedding, err)
	}

	toCache := make(map[core.ID]core.Vector, len(missing))
	for k, i := range missing {
		if len(fresh[k]) == 0 {
			return nil, 0, fmt.Errorf("%w: provider returned an empty vector", core.ErrEmbedding)
		}
		v := core.NormalizeVector(core.Vector(fresh[k]))
		out[i] = v
		toCache[ids[i]] = v
	}

	if writeBack && s.cache != nil {
		if err := s.cache.PutVectors(ctx, model, toCache); err != nil {
			s.logger.Warn("embedding cache write failed", "count", len(toCache), "err", err)
		}
	}

	return out, hitCount, nil
}
