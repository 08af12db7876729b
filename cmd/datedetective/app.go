package main

import (
	"context"
	"fmt"

	"github.com/jonathan/datedetective/internal/config"
	"github.com/jonathan/datedetective/internal/db"
	"github.com/jonathan/datedetective/internal/detective"
	"github.com/jonathan/datedetective/internal/llm"
	"github.com/jonathan/datedetective/internal/tagger"
	"github.com/jonathan/datedetective/internal/tagger/bilstm"
	"github.com/jonathan/datedetective/internal/tagger/llmtag"
	"go.uber.org/zap"
)

// app holds the resources a command needs. Close releases them.
type app struct {
	detective *detective.Detective
	db        *db.DB
	closers   []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp builds the configured tagger and detective. When a database is
// configured it is migrated and used as the tag cache.
func newApp(ctx context.Context, cfg *config.Config, strict bool, workers int) (*app, error) {
	a := &app{}

	base, err := buildTagger(ctx, cfg, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	var t tagger.Tagger = base
	if cfg.DatabaseURL != "" {
		database, err := openDB(ctx, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.db = database
		a.closers = append(a.closers, database.Close)
		t = tagger.NewCached(base, database, logger)
	}

	if workers <= 0 {
		workers = cfg.Workers
	}
	opts := []detective.Option{detective.WithWorkers(workers), detective.WithLogger(logger)}
	if strict || cfg.Strict {
		opts = append(opts, detective.WithStrictWidth())
	}
	a.detective = detective.New(t, opts...)
	return a, nil
}

// buildTagger returns the tagger named by cfg.Tagger.
func buildTagger(ctx context.Context, cfg *config.Config, a *app) (tagger.Tagger, error) {
	switch cfg.Tagger {
	case "", config.TaggerHeuristic:
		return tagger.NewHeuristic(), nil
	case config.TaggerBiLSTM:
		m, err := bilstm.Load(cfg.Model)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded model", zap.String("path", cfg.Model), zap.Int("tags", m.Vocabulary().NumTags()))
		return m, nil
	case config.TaggerLLM:
		llmCfg := llm.ConfigFromEnv()
		if cfg.LLMModel != "" {
			llmCfg = llmCfg.WithModel(llm.TierLite, cfg.LLMModel)
		}
		client, err := llm.NewClient(ctx, llmCfg, cfg.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return llmtag.New(client, llmtag.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("unknown tagger %q", cfg.Tagger)
	}
}

func openDB(ctx context.Context, url string) (*db.DB, error) {
	database, err := db.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// requireDB opens the configured database for commands that cannot run without one.
func requireDB(ctx context.Context) (*db.DB, error) {
	if appConfig.DatabaseURL == "" {
		return nil, fmt.Errorf("a database is required (set DATABASE_URL or use --db-url)")
	}
	return openDB(ctx, appConfig.DatabaseURL)
}
