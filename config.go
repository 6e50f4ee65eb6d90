package lexrag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/poiesic/lexrag/ai"
	"github.com/poiesic/lexrag/answer"
	"github.com/poiesic/lexrag/knowledge"
	"github.com/poiesic/lexrag/retrieval"
	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration of an Engine.
type Config struct {
	// KnowledgeBase is the path of the JSON or YAML knowledge base file.
	KnowledgeBase string `yaml:"knowledge_base"`

	// CachePath is the embedding cache directory. Empty disables caching.
	CachePath string `yaml:"cache"`

	// TopK is the default number of chunks averaged per label.
	TopK int `yaml:"top_k"`

	// PoolSize is the number of concurrent embedding workers. 0 selects
	// runtime.NumCPU() / 2.
	PoolSize int `yaml:"pool_size"`

	// BatchSize is the number of chunks per embedding request.
	BatchSize int `yaml:"batch_size"`

	// MaxAttempts is the number of tries per failed embedding batch.
	MaxAttempts int `yaml:"max_attempts"`

	// RetryDelay is the initial backoff between attempts, e.g. "500ms".
	RetryDelay time.Duration `yaml:"retry_delay"`

	Prompt answer.PromptOptions `yaml:"prompt"`
	AI     ai.Config            `yaml:"ai"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		KnowledgeBase: "knowledge_base.json",
		TopK:          retrieval.DefaultTopK,
		BatchSize:     knowledge.DefaultBatchSize,
		MaxAttempts:   knowledge.DefaultMaxAttempts,
		RetryDelay:    knowledge.DefaultRetryDelay,
		Prompt:        answer.DefaultPromptOptions(),
		AI:            *ai.DefaultConfig(),
	}
}

// LoadConfig reads a YAML config file over the defaults. Keys absent from
// the file keep their default values; unknown keys are an error.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration and normalizes the AI settings.
func (c *Config) Validate() error {
	if c.KnowledgeBase == "" {
		return errors.New("config: knowledge_base is required")
	}
	if c.TopK < 1 {
		return errors.New("config: top_k must be at least 1")
	}
	if c.BatchSize < 1 {
		return errors.New("config: batch_size must be at least 1")
	}
	if c.MaxAttempts < 1 {
		return errors.New("config: max_attempts must be at least 1")
	}
	if c.RetryDelay < 0 {
		return errors.New("config: retry_delay cannot be negative")
	}
	return c.AI.Validate()
}
