// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docquery-dev/docquery/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)

	dir := t.TempDir()
	cfg.Storage.Path = filepath.Join(dir, "docquery.db")
	cfg.Index.Path = filepath.Join(dir, "docquery.index")
	return cfg
}

func TestWireAppRequiresEmbeddingKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenAI.APIKey = ""

	_, err := WireApp(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai.api_key")
}

func TestWireAppWithoutGenerator(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenAI.APIKey = "sk-test"

	app, err := WireApp(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	require.NotNil(t, app.Server)
	require.NotNil(t, app.Service)
	assert.Zero(t, app.Index.Count())
}

func TestWireAppWithGenerator(t *testing.T) {
	cfg := testConfig(t)
	cfg.OpenAI.APIKey = "sk-test"
	cfg.Anthropic.APIKey = "sk-ant-test"

	app, err := WireApp(context.Background(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	status, err := app.Service.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Generation.Available, "fresh generator starts available")
	assert.False(t, status.Ready, "empty corpus is not ready")
}
