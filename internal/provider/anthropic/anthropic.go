// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

// Package anthropic implements provider.Generator using the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/docquery-dev/docquery/internal/provider"
	dqerr "github.com/docquery-dev/docquery/pkg/errors"
)

const (
	// DefaultModel is the generation model used when config does not name one.
	DefaultModel = "claude-haiku-4-5"
	// DefaultContextWindow reflects the current Claude context size.
	DefaultContextWindow = 200000
)

// Config holds Anthropic generator configuration.
type Config struct {
	APIKey        string
	Model         string
	ContextWindow int
	BaseURL       string // optional, useful for testing against a mock server
}

// Compile-time interface check.
var _ provider.Generator = (*Generator)(nil)

// Generator implements provider.Generator over the Anthropic Messages
// API. Upstream failures trip a cooldown so Available reflects recent
// reality instead of optimism.
type Generator struct {
	client anthropicsdk.Client
	config Config
	health *provider.HealthTracker
}

// New creates a Generator. Returns an error if the API key is missing.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, dqerr.New(dqerr.CodeConfigInvalid, "anthropic: missing api_key in config")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = DefaultContextWindow
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	tracker, err := provider.NewHealthTracker(provider.DefaultHealthCooldown)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: anthropicsdk.NewClient(opts...),
		config: cfg,
		health: tracker,
	}, nil
}

// Available reports whether generation is currently usable.
func (g *Generator) Available(_ context.Context) bool {
	return g.health.IsHealthy()
}

// Generate sends the prompt and returns the concatenated text blocks
// of the response. The caller's context cancels the in-flight call.
func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 256
	}

	msg, err := g.client.Messages.New(ctx, anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(g.config.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropicsdk.MessageParam{
			anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		g.health.RecordFailure()
		return "", dqerr.Wrapf(err, dqerr.CodeGenerationUpstream, "anthropic: generating answer")
	}
	g.health.RecordSuccess()

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// Info describes the generation backend.
func (g *Generator) Info(ctx context.Context) provider.GeneratorInfo {
	available := g.Available(ctx)
	return provider.GeneratorInfo{
		Available:     available,
		Loaded:        true,
		Name:          g.config.Model,
		ContextWindow: g.config.ContextWindow,
	}
}

// HealthMetrics exposes the cooldown tracker state for status reports.
func (g *Generator) HealthMetrics() provider.HealthMetrics {
	return g.health.HealthMetrics()
}
