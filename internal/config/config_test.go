// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Listen)
	assert.Equal(t, "docquery.db", cfg.Storage.Path)
	assert.Equal(t, "docquery.index", cfg.Index.Path)
	assert.Equal(t, 1536, cfg.Index.Dimension)
	assert.Equal(t, 500, cfg.Chunker.Size)
	assert.Equal(t, 100, cfg.Chunker.Overlap)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.Model)
	assert.Equal(t, "claude-haiku-4-5", cfg.Anthropic.Model)
	assert.Equal(t, 256, cfg.Anthropic.MaxTokens)
	assert.Equal(t, 10, cfg.Retrieval.TopKCeiling)
	assert.Empty(t, cfg.OpenAI.APIKey)
	assert.Empty(t, cfg.Anthropic.APIKey)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  listen: "0.0.0.0:9090"
storage:
  path: /tmp/test.db
index:
  dimension: 768
chunker:
  size: 300
  overlap: 50
openai:
  api_key: sk-test
  model: text-embedding-3-large
anthropic:
  api_key: sk-ant-test
retrieval:
  top_k_ceiling: 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Listen)
	assert.Equal(t, "/tmp/test.db", cfg.Storage.Path)
	assert.Equal(t, 768, cfg.Index.Dimension)
	assert.Equal(t, 300, cfg.Chunker.Size)
	assert.Equal(t, 50, cfg.Chunker.Overlap)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "text-embedding-3-large", cfg.OpenAI.Model)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.APIKey)
	assert.Equal(t, 20, cfg.Retrieval.TopKCeiling)
	// Unset keys keep defaults.
	assert.Equal(t, "claude-haiku-4-5", cfg.Anthropic.Model)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DOCQUERY_SERVER_LISTEN", "127.0.0.1:7777")
	t.Setenv("DOCQUERY_OPENAI_API_KEY", "sk-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7777", cfg.Server.Listen)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty listen", func(c *Config) { c.Server.Listen = "" }, "server.listen"},
		{"bad listen", func(c *Config) { c.Server.Listen = "no-port" }, "server.listen"},
		{"bad port", func(c *Config) { c.Server.Listen = "127.0.0.1:notaport" }, "port"},
		{"empty storage path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"zero dimension", func(c *Config) { c.Index.Dimension = 0 }, "index.dimension"},
		{"zero chunk size", func(c *Config) { c.Chunker.Size = 0 }, "chunker.size"},
		{"negative overlap", func(c *Config) { c.Chunker.Overlap = -1 }, "chunker.overlap"},
		{"overlap exceeds size", func(c *Config) { c.Chunker.Overlap = 500 }, "chunker.overlap"},
		{"zero top_k ceiling", func(c *Config) { c.Retrieval.TopKCeiling = 0 }, "top_k_ceiling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			errs := cfg.Validate()
			require.NotEmpty(t, errs)
			found := false
			for _, err := range errs {
				if strings.Contains(err.Error(), tt.wantErr) {
					found = true
				}
			}
			assert.True(t, found, "expected an error mentioning %q, got %v", tt.wantErr, errs)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Server.Listen = ""
	cfg.Storage.Path = ""
	cfg.Index.Dimension = 0

	errs := cfg.Validate()
	assert.GreaterOrEqual(t, len(errs), 3)
}
