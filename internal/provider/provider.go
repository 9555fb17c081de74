// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

// Package provider defines the external model providers the retrieval
// pipeline depends on: an embedding provider mapping text to
// fixed-dimension vectors and a generation provider mapping prompts to
// text. Generation may be unavailable; the orchestrator degrades
// rather than fails.
package provider

import "context"

// Embedder maps text to fixed-dimension vectors. Implementations must
// return one vector per input text, all of the same dimension.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Info(ctx context.Context) EmbedderInfo
}

// EmbedderInfo describes the embedding backend.
type EmbedderInfo struct {
	Loaded    bool   `json:"model_loaded"`
	Name      string `json:"model_name"`
	Dimension int    `json:"dimension"`
}

// Generator maps a prompt to generated text. Available reports whether
// generation is currently usable; callers must treat false as a signal
// to degrade, never as a request failure.
type Generator interface {
	Available(ctx context.Context) bool
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	Info(ctx context.Context) GeneratorInfo
}

// GeneratorInfo describes the generation backend.
type GeneratorInfo struct {
	Available     bool   `json:"is_available"`
	Loaded        bool   `json:"is_loaded"`
	Name          string `json:"model_name"`
	ContextWindow int    `json:"context_window"`
}
