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


package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/lexrag"
	"github.com/poiesic/lexrag/answer"
	"github.com/poiesic/lexrag/core"
	"github.com/poiesic/lexrag/knowledge"
	"github.com/poiesic/lexrag/retrieval"
	"github.com/urfave/cli/v2"
)

// Length of context excerpts printed by the answer command.
const contextSnippetRunes = 600

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// commands holds what every command needs beyond its flags.
type commands struct {
	// engineOpts are appended to the options each command builds its engine with.
	engineOpts []lexrag.EngineOption
}

func newApp() *cli.App {
	return newAppWith()
}

// newAppWith builds the application with extra engine options, such as a
// provider other than the configured one.
func newAppWith(engineOpts ...lexrag.EngineOption) *cli.App {
	cmds := &commands{engineOpts: engineOpts}
	return &cli.App{
		Name:  "lexrag",
		Usage: "Answer legal questions from a labelled case knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LEXRAG_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"LEXRAG_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "kb",
				Aliases: []string{"k"},
				Usage:   "Knowledge base file (JSON or YAML)",
				EnvVars: []string{"LEXRAG_KB"},
			},
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "AI provider (openai, hashing)",
				EnvVars: []string{"LEXRAG_PROVIDER"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				EnvVars: []string{"LEXRAG_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"LEXRAG_EMBEDDING_MODEL"},
			},
			&cli.StringFlag{
				Name:    "generator-host",
				Usage:   "Generation service host URL",
				EnvVars: []string{"LEXRAG_GENERATOR_HOST"},
			},
			&cli.StringFlag{
				Name:    "generator-model",
				Usage:   "Generation model name",
				EnvVars: []string{"LEXRAG_GENERATOR_MODEL"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API token for the AI services",
				EnvVars: []string{"LEXRAG_API_KEY", "OPENAI_API_KEY"},
			},
			&cli.StringFlag{
				Name:    "cache",
				Usage:   "Embedding cache directory (BadgerDB)",
				EnvVars: []string{"LEXRAG_CACHE"},
			},
			&cli.IntFlag{
				Name:    "max-input-tokens",
				Usage:   "Truncate embedding input to N whitespace-delimited words (0 disables)",
				EnvVars: []string{"LEXRAG_MAX_INPUT_TOKENS"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "labels",
				Usage:  "List knowledge base labels and their chunk counts",
				Action: labelsCommand,
			},
			{
				Name:   "index",
				Usage:  "Embed the knowledge base, filling the embedding cache",
				Action: cmds.indexCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "purge",
						Usage: "Drop cached vectors for the embedding model first",
					},
				},
			},
			{
				Name:      "retrieve",
				Usage:     "Find the label best supported by the knowledge base",
				ArgsUsage: "<question...>",
				Action:    cmds.retrieveCommand,
				Flags: []cli.Flag{
					topKFlag(),
					timeoutFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the result as JSON",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print per-label scoring to stderr",
					},
				},
			},
			{
				Name:      "answer",
				Usage:     "Answer a question about a case",
				ArgsUsage: "<question...>",
				Action:    cmds.answerCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "case",
						Usage:    "File containing the case text",
						Required: true,
					},
					topKFlag(),
					timeoutFlag(),
				},
			},
		},
	}
}

func topKFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "top-k",
		Usage: "Chunks averaged per label (default from config)",
	}
}

func timeoutFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "timeout",
		Usage: "Abort the request after this long (0 means no limit)",
	}
}

// buildConfig loads --config (or the defaults) and applies explicitly set flags.
func buildConfig(c *cli.Context) (*lexrag.Config, error) {
	cfg := lexrag.DefaultConfig()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = lexrag.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if c.IsSet("kb") {
		cfg.KnowledgeBase = c.String("kb")
	}
	if c.IsSet("cache") {
		cfg.CachePath = c.String("cache")
	}
	if c.IsSet("provider") {
		cfg.AI.Provider = c.String("provider")
	}
	if c.IsSet("embedding-host") {
		cfg.AI.EmbeddingHost = c.String("embedding-host")
	}
	if c.IsSet("embedding-model") {
		cfg.AI.EmbeddingModel = c.String("embedding-model")
	}
	if c.IsSet("generator-host") {
		cfg.AI.GeneratorHost = c.String("generator-host")
	}
	if c.IsSet("generator-model") {
		cfg.AI.GeneratorModel = c.String("generator-model")
	}
	if c.IsSet("api-key") {
		cfg.AI.APIKey = c.String("api-key")
	}
	if c.IsSet("max-input-tokens") {
		cfg.AI.MaxInputTokens = c.Int("max-input-tokens")
	}
	if c.IsSet("top-k") {
		cfg.TopK = c.Int("top-k")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (cmds *commands) openEngine(c *cli.Context, opts ...lexrag.EngineOption) (*lexrag.Engine, error) {
	cfg, err := buildConfig(c)
	if err != nil {
		return nil, err
	}

	opts = append(opts, lexrag.WithLogger(slog.Default()))
	opts = append(opts, cmds.engineOpts...)
	engine, err := lexrag.NewEngine(c.Context, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start: %w", err)
	}
	return engine, nil
}

// requestContext applies the --timeout flag.
func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	if d := c.Duration("timeout"); d > 0 {
		return context.WithTimeout(c.Context, d)
	}
	return context.WithCancel(c.Context)
}

func question(c *cli.Context) (string, error) {
	q := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if q == "" {
		return "", errors.New("a question is required")
	}
	return q, nil
}

func labelsCommand(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}

	kb, err := knowledge.Load(cfg.KnowledgeBase)
	if err != nil {
		return err
	}

	w := c.App.Writer
	for label, chunks := range kb.All() {
		fmt.Fprintf(w, "%s\t%d\n", label, len(chunks))
	}
	fmt.Fprintf(w, "%d labels, %d chunks\n", kb.Len(), kb.TotalChunks())
	return nil
}

func (cmds *commands) indexCommand(c *cli.Context) error {
	start := time.Now()

	opts := []lexrag.EngineOption{lexrag.WithProgress(c.App.ErrWriter)}
	if c.Bool("purge") {
		opts = append(opts, lexrag.WithPurgeCache())
	}

	engine, err := cmds.openEngine(c, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	index := engine.Index()
	w := c.App.Writer
	fmt.Fprintf(w, "Knowledge base: %s\n", engine.Config().KnowledgeBase)
	fmt.Fprintf(w, "Model: %s\n", index.Model())
	fmt.Fprintf(w, "Labels: %d\n", index.Len())
	fmt.Fprintf(w, "Chunks: %d\n", engine.KnowledgeBase().TotalChunks())
	fmt.Fprintf(w, "Dimension: %d\n", index.Dimension())
	fmt.Fprintf(w, "Elapsed: %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

type retrieveOutput struct {
	Found    bool         `json:"found"`
	Label    core.Label   `json:"label,omitempty"`
	Score    float64      `json:"score"`
	Contexts []core.Chunk `json:"contexts"`
}

func (cmds *commands) retrieveCommand(c *cli.Context) error {
	q, err := question(c)
	if err != nil {
		return err
	}

	engine, err := cmds.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := requestContext(c)
	defer cancel()

	var monitor retrieval.RetrievalMonitor
	if c.Bool("trace") {
		monitor = retrieval.NewTraceMonitor(c.App.ErrWriter)
	}

	result, err := engine.RetrieveWithMonitor(ctx, q, engine.Config().TopK, monitor)
	if err != nil {
		return err
	}

	out := retrieveOutput{
		Score:    result.Score(),
		Contexts: result.Contexts(),
	}
	out.Label, out.Found = result.Label()
	if out.Contexts == nil {
		out.Contexts = []core.Chunk{}
	}

	w := c.App.Writer
	if c.Bool("json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if !out.Found {
		fmt.Fprintln(w, "No match (insufficient evidence)")
		return nil
	}
	fmt.Fprintf(w, "Label: %s\n", out.Label)
	fmt.Fprintf(w, "Score: %.4f\n", out.Score)
	for i, chunk := range out.Contexts {
		fmt.Fprintf(w, "[%d] %s\n", i+1, chunk)
	}
	return nil
}

func (cmds *commands) answerCommand(c *cli.Context) error {
	q, err := question(c)
	if err != nil {
		return err
	}

	caseText, err := os.ReadFile(c.String("case"))
	if err != nil {
		return fmt.Errorf("failed to read case file: %w", err)
	}

	engine, err := cmds.openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, cancel := requestContext(c)
	defer cancel()

	ans, err := engine.Answer(ctx, q, string(caseText), engine.Config().TopK)
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Answer: %s\n", ans.Text)

	label, found := ans.Retrieval.Label()
	if !found {
		fmt.Fprintln(w, "Predicted label: none")
		return nil
	}
	fmt.Fprintf(w, "Predicted label: %s\n", label)
	fmt.Fprintf(w, "Relevance score: %.2f\n", ans.Retrieval.Score())

	contexts := ans.Retrieval.Contexts()
	if len(contexts) > 0 {
		fmt.Fprintf(w, "Primary context: %s\n", answer.Snippet(string(contexts[0]), contextSnippetRunes))
	}
	if len(contexts) > 1 {
		fmt.Fprintf(w, "Supporting context: %s\n", answer.Snippet(string(contexts[1]), contextSnippetRunes))
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
