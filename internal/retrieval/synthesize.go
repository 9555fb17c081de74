// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package retrieval

import (
	"context"
	"fmt"
	"strings"
)

const (
	// promptChunkCount bounds how many chunks feed a generated answer.
	promptChunkCount = 3
	// fallbackChunkCount bounds the extractive answer after a
	// generation failure.
	fallbackChunkCount = 2

	extractiveExcerptChars = 300
	fallbackExcerptChars   = 200
	searchExcerptChars     = 500

	msgNoResults = "I couldn't find any relevant information to answer your question. " +
		"Please try rephrasing or upload more relevant documents."
	msgNothingHydrated = "I found some potentially relevant chunks, but couldn't retrieve " +
		"their content. Please try again."
)

const promptTemplate = `You are a helpful assistant that answers questions based on the provided context. Use only the information from the context to answer the question. If the context doesn't contain enough information to answer the question, say so clearly.

Context:
%s

Question: %s

Answer: `

// synthesize produces the answer text. With no usable generator it
// returns the extractive degraded answer; a generation failure is
// caught here and degrades to a shorter extractive answer instead of
// failing the request.
func (s *Service) synthesize(ctx context.Context, question string, retrieved []RetrievedChunk) string {
	if s.generator == nil || !s.generator.Available(ctx) {
		s.logger.Warn("generation unavailable, returning extractive answer")
		return extractiveAnswer(retrieved, promptChunkCount, extractiveExcerptChars)
	}

	prompt := s.buildPrompt(question, retrieved)

	answer, err := s.generator.Generate(ctx, prompt, s.cfg.MaxAnswerTokens)
	if err != nil {
		s.logger.Warn("generation failed, falling back to extractive answer", "error", err)
		return "I found relevant information but encountered an error generating a response. " +
			"Here's what I found:\n\n" +
			excerptList(retrieved, fallbackChunkCount, fallbackExcerptChars)
	}
	return answer
}

// buildPrompt assembles a bounded-size prompt from the top chunks and
// the question. Each chunk's content is truncated so a handful of long
// chunks cannot blow the context window.
func (s *Service) buildPrompt(question string, retrieved []RetrievedChunk) string {
	n := promptChunkCount
	if n > len(retrieved) {
		n = len(retrieved)
	}

	parts := make([]string, 0, n)
	for _, chunk := range retrieved[:n] {
		parts = append(parts, excerpt(chunk.Content, s.cfg.PromptChunkChars))
	}

	return fmt.Sprintf(promptTemplate, strings.Join(parts, "\n\n"), question)
}

// extractiveAnswer is the designed degraded mode: source text quoted
// directly, attributed by filename.
func extractiveAnswer(retrieved []RetrievedChunk, maxChunks, excerptChars int) string {
	return "Based on the retrieved context:\n\n" + excerptList(retrieved, maxChunks, excerptChars)
}

func excerptList(retrieved []RetrievedChunk, maxChunks, excerptChars int) string {
	n := maxChunks
	if n > len(retrieved) {
		n = len(retrieved)
	}

	var sb strings.Builder
	for i, chunk := range retrieved[:n] {
		fmt.Fprintf(&sb, "%d. From %s:\n%s\n\n", i+1, chunk.Filename, excerpt(chunk.Content, excerptChars))
	}
	return strings.TrimRight(sb.String(), "\n")
}

// excerpt truncates s to at most n runes, marking the cut with an
// ellipsis.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
