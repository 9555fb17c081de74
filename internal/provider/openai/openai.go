// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

// Package openai implements provider.Embedder using the OpenAI
// embeddings API.
package openai

import (
	"context"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/docquery-dev/docquery/internal/provider"
	dqerr "github.com/docquery-dev/docquery/pkg/errors"
)

// DefaultModel is the embedding model used when config does not name one.
const DefaultModel = "text-embedding-3-small"

// Config holds OpenAI embedder configuration.
type Config struct {
	APIKey    string
	Model     string
	Dimension int
	BaseURL   string // optional, useful for testing against a mock server
}

// Compile-time interface check.
var _ provider.Embedder = (*Embedder)(nil)

// Embedder implements provider.Embedder over the OpenAI embeddings
// endpoint. The dimension is fixed at construction and requested
// explicitly from the API so stored vectors and the index always agree.
type Embedder struct {
	client openaisdk.Client
	config Config
}

// New creates an Embedder. Returns an error if the API key is missing
// or the dimension is not positive.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, dqerr.New(dqerr.CodeConfigInvalid, "openai: missing api_key in config")
	}
	if cfg.Dimension <= 0 {
		return nil, dqerr.Errorf(dqerr.CodeConfigInvalid, "openai: embedding dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Embedder{client: openaisdk.NewClient(opts...), config: cfg}, nil
}

// Embed returns one vector per input text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openaisdk.EmbeddingNewParams{
		Input: openaisdk.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model:      openaisdk.EmbeddingModel(e.config.Model),
		Dimensions: param.NewOpt(int64(e.config.Dimension)),
	})
	if err != nil {
		return nil, dqerr.Wrapf(err, dqerr.CodeEmbeddingUpstream, "openai: embedding %d texts", len(texts))
	}

	if len(resp.Data) != len(texts) {
		return nil, dqerr.Errorf(dqerr.CodeEmbeddingUpstream,
			"openai: got %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		if int(item.Index) >= len(vectors) {
			return nil, dqerr.Errorf(dqerr.CodeEmbeddingUpstream, "openai: embedding index %d out of range", item.Index)
		}
		vec := make([]float32, len(item.Embedding))
		for j, x := range item.Embedding {
			vec[j] = float32(x)
		}
		if len(vec) != e.config.Dimension {
			return nil, dqerr.Errorf(dqerr.CodeIndexDimensionMismatch,
				"openai: embedding has dimension %d, configured dimension is %d", len(vec), e.config.Dimension)
		}
		vectors[item.Index] = vec
	}

	return vectors, nil
}

// Dimension returns the fixed embedding dimension.
func (e *Embedder) Dimension() int { return e.config.Dimension }

// Info describes the embedding backend. The OpenAI client holds no
// local model, so Loaded simply reports that the client is configured.
func (e *Embedder) Info(_ context.Context) provider.EmbedderInfo {
	return provider.EmbedderInfo{
		Loaded:    true,
		Name:      e.config.Model,
		Dimension: e.config.Dimension,
	}
}
