// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package config

import (
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	dqerr "github.com/docquery-dev/docquery/pkg/errors"
)

// Config is the top-level Docquery configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Index     IndexConfig     `mapstructure:"index"`
	Chunker   ChunkerConfig   `mapstructure:"chunker"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
}

// ServerConfig controls how Docquery listens for connections.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// StorageConfig locates the document database.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// IndexConfig controls the vector index.
type IndexConfig struct {
	Path      string `mapstructure:"path"`
	Dimension int    `mapstructure:"dimension"`
}

// ChunkerConfig controls text chunking.
type ChunkerConfig struct {
	Size    int `mapstructure:"size"`
	Overlap int `mapstructure:"overlap"`
}

// OpenAIConfig holds credentials and model for the embedding provider.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// AnthropicConfig holds credentials and model for answer generation.
// An empty API key disables generation; answers degrade to extractive
// mode.
type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// RetrievalConfig tunes query-time behavior.
type RetrievalConfig struct {
	TopKCeiling      int `mapstructure:"top_k_ceiling"`
	PromptChunkChars int `mapstructure:"prompt_chunk_chars"`
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix DOCQUERY_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:8080")
	v.SetDefault("storage.path", "docquery.db")
	v.SetDefault("index.path", "docquery.index")
	v.SetDefault("index.dimension", 1536)
	v.SetDefault("chunker.size", 500)
	v.SetDefault("chunker.overlap", 100)
	v.SetDefault("openai.model", "text-embedding-3-small")
	v.SetDefault("anthropic.model", "claude-haiku-4-5")
	v.SetDefault("anthropic.max_tokens", 256)
	v.SetDefault("retrieval.top_k_ceiling", 10)
	v.SetDefault("retrieval.prompt_chunk_chars", 1000)

	// Environment
	v.SetEnvPrefix("DOCQUERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, dqerr.Wrapf(err, dqerr.CodeConfigLoad, "reading config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, dqerr.Wrap(err, dqerr.CodeConfigLoad, "unmarshalling config")
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, dqerr.Wrap(errors.Join(errs...), dqerr.CodeConfigInvalid, "validating config")
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns
// every validation error found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateIndex()...)
	errs = append(errs, c.validateChunker()...)
	errs = append(errs, c.validateRetrieval()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, dqerr.New(dqerr.CodeConfigInvalid, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, dqerr.Errorf(dqerr.CodeConfigInvalid,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, dqerr.Errorf(dqerr.CodeConfigInvalid,
			"config: server.listen port must be a number, got %q", portStr))
	} else if port < 0 || port > 65535 {
		errs = append(errs, dqerr.Errorf(dqerr.CodeConfigInvalid,
			"config: server.listen port must be between 0 and 65535, got %d", port))
	}

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	if c.Storage.Path == "" {
		errs = append(errs, dqerr.New(dqerr.CodeConfigInvalid, "config: storage.path must not be empty"))
	}

	return errs
}

func (c *Config) validateIndex() []error {
	var errs []error

	if c.Index.Dimension <= 0 {
		errs = append(errs, dqerr.Errorf(dqerr.CodeConfigInvalid,
			"config: index.dimension must be greater than 0, got %d", c.Index.Dimension))
	}

	return errs
}

func (c *Config) validateChunker() []error {
	var errs []error

	if c.Chunker.Size <= 0 {
		errs = append(errs, dqerr.Errorf(dqerr.CodeConfigInvalid,
			"config: chunker.size must be greater than 0, got %d", c.Chunker.Size))
	}
	if c.Chunker.Overlap < 0 {
		errs = append(errs, dqerr.Errorf(dqerr.CodeConfigInvalid,
			"config: chunker.overlap must not be negative, got %d", c.Chunker.Overlap))
	}
	if c.Chunker.Size > 0 && c.Chunker.Overlap >= c.Chunker.Size {
		errs = append(errs, dqerr.Errorf(dqerr.CodeConfigInvalid,
			"config: chunker.overlap must be smaller than chunker.size, got %d >= %d",
			c.Chunker.Overlap, c.Chunker.Size))
	}

	return errs
}

func (c *Config) validateRetrieval() []error {
	var errs []error

	if c.Retrieval.TopKCeiling <= 0 {
		errs = append(errs, dqerr.Errorf(dqerr.CodeConfigInvalid,
			"config: retrieval.top_k_ceiling must be greater than 0, got %d", c.Retrieval.TopKCeiling))
	}
	if c.Retrieval.PromptChunkChars <= 0 {
		errs = append(errs, dqerr.Errorf(dqerr.CodeConfigInvalid,
			"config: retrieval.prompt_chunk_chars must be greater than 0, got %d", c.Retrieval.PromptChunkChars))
	}

	return errs
}
