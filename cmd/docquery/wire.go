// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docquery-dev/docquery/internal/chunker"
	"github.com/docquery-dev/docquery/internal/config"
	"github.com/docquery-dev/docquery/internal/index"
	"github.com/docquery-dev/docquery/internal/provider"
	anthropicprov "github.com/docquery-dev/docquery/internal/provider/anthropic"
	openaiprov "github.com/docquery-dev/docquery/internal/provider/openai"
	"github.com/docquery-dev/docquery/internal/retrieval"
	"github.com/docquery-dev/docquery/internal/server"
	"github.com/docquery-dev/docquery/internal/store"
	"github.com/docquery-dev/docquery/internal/store/sqlite"
	dqerr "github.com/docquery-dev/docquery/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Server  *server.Server
	Store   store.DocumentStore
	Index   *index.Flat
	Service *retrieval.Service
}

// WireApp creates all subsystems and wires them together.
func WireApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, dqerr.Wrap(err, dqerr.CodeSetupFailure, "creating storage directory")
		}
	}

	// 1. Document store.
	docs, err := sqlite.NewDocumentStore(cfg.Storage.Path)
	if err != nil {
		return nil, dqerr.Wrap(err, dqerr.CodeSetupFailure, "opening document store")
	}

	// 2. Vector index.
	idx, err := index.New(cfg.Index.Dimension, cfg.Index.Path, logger)
	if err != nil {
		_ = docs.Close()
		return nil, dqerr.Wrap(err, dqerr.CodeSetupFailure, "opening vector index")
	}

	// 3. Embedding provider.
	if cfg.OpenAI.APIKey == "" {
		_ = docs.Close()
		return nil, dqerr.New(dqerr.CodeSetupFailure,
			"openai.api_key is required; set it in config or DOCQUERY_OPENAI_API_KEY")
	}
	embedder, err := openaiprov.New(openaiprov.Config{
		APIKey:    cfg.OpenAI.APIKey,
		Model:     cfg.OpenAI.Model,
		Dimension: cfg.Index.Dimension,
		BaseURL:   cfg.OpenAI.BaseURL,
	})
	if err != nil {
		_ = docs.Close()
		return nil, dqerr.Wrap(err, dqerr.CodeSetupFailure, "creating embedding provider")
	}

	// 4. Generation provider. Optional; without it every answer uses
	// the extractive degraded mode.
	var generator *anthropicprov.Generator
	if cfg.Anthropic.APIKey != "" {
		generator, err = anthropicprov.New(anthropicprov.Config{
			APIKey:  cfg.Anthropic.APIKey,
			Model:   cfg.Anthropic.Model,
			BaseURL: cfg.Anthropic.BaseURL,
		})
		if err != nil {
			_ = docs.Close()
			return nil, dqerr.Wrap(err, dqerr.CodeSetupFailure, "creating generation provider")
		}
	} else {
		logger.Warn("anthropic.api_key not set, answers will be extractive only")
	}

	// 5. Retrieval orchestrator.
	ch := chunker.New(
		chunker.WithSize(cfg.Chunker.Size),
		chunker.WithOverlap(cfg.Chunker.Overlap),
	)

	svc := retrieval.NewService(docs, embedder, generatorOrNil(generator), idx, ch, logger, retrieval.Config{
		TopKCeiling:      cfg.Retrieval.TopKCeiling,
		MaxAnswerTokens:  cfg.Anthropic.MaxTokens,
		PromptChunkChars: cfg.Retrieval.PromptChunkChars,
	})

	// Reconcile a lost or discarded index blob against the store.
	if idx.Count() == 0 {
		if _, err := svc.RebuildIndex(ctx); err != nil {
			logger.Warn("index rebuild failed, continuing with empty index", "error", err)
		}
	}

	// 6. HTTP server.
	srv, err := server.New(server.Config{
		ListenAddr:  cfg.Server.Listen,
		CORSOrigins: cfg.Server.CORSOrigins,
	}, svc, logger)
	if err != nil {
		_ = docs.Close()
		return nil, dqerr.Wrap(err, dqerr.CodeSetupFailure, "creating server")
	}

	return &App{
		Server:  srv,
		Store:   docs,
		Index:   idx,
		Service: svc,
	}, nil
}

// generatorOrNil avoids storing a typed nil in the Generator
// interface when no provider is configured.
func generatorOrNil(g *anthropicprov.Generator) provider.Generator {
	if g == nil {
		return nil
	}
	return g
}

// Start runs the HTTP server and blocks until the context is cancelled.
func (a *App) Start(ctx context.Context) error {
	return a.Server.Start(ctx)
}

// Close releases all resources held by the app.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
