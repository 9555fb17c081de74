// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

// Package retrieval coordinates the question-answering pipeline:
// ingestion-time chunking and embedding, vector index maintenance,
// query-time retrieval, confidence scoring, and answer synthesis with
// graceful degradation when generation is unavailable.
package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"github.com/docquery-dev/docquery/internal/chunker"
	"github.com/docquery-dev/docquery/internal/index"
	"github.com/docquery-dev/docquery/internal/provider"
	"github.com/docquery-dev/docquery/internal/store"
	dqerr "github.com/docquery-dev/docquery/pkg/errors"
)

const (
	// minQuestionLen is the shortest trimmed question accepted.
	minQuestionLen = 3
	// minIngestLen is the shortest trimmed document text accepted.
	minIngestLen = 10

	// DefaultTopK applies when the caller requests no result count.
	DefaultTopK = 5
	// DefaultTopKCeiling bounds search latency regardless of caller input.
	DefaultTopKCeiling = 10
	// DefaultMaxAnswerTokens is the generation token budget per answer.
	DefaultMaxAnswerTokens = 256
	// DefaultPromptChunkChars caps each chunk's contribution to the prompt.
	DefaultPromptChunkChars = 1000
)

// Config tunes the orchestrator.
type Config struct {
	TopKCeiling      int
	MaxAnswerTokens  int
	PromptChunkChars int
}

// Service is the retrieval orchestrator. It owns no global state; all
// collaborators are injected from the composition root and share the
// process lifetime.
//
// The vector index is the only shared mutable state; it serializes its
// own mutations internally. Embedding and generation calls are slow
// (seconds) and are always made outside any index lock.
type Service struct {
	store     store.DocumentStore
	embedder  provider.Embedder
	generator provider.Generator
	index     *index.Flat
	chunker   *chunker.Chunker
	logger    *slog.Logger
	cfg       Config
}

// NewService wires the orchestrator. generator may be nil, in which
// case every answer uses the extractive degraded mode.
func NewService(
	docs store.DocumentStore,
	embedder provider.Embedder,
	generator provider.Generator,
	idx *index.Flat,
	ch *chunker.Chunker,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if ch == nil {
		ch = chunker.New()
	}
	if cfg.TopKCeiling <= 0 {
		cfg.TopKCeiling = DefaultTopKCeiling
	}
	if cfg.MaxAnswerTokens <= 0 {
		cfg.MaxAnswerTokens = DefaultMaxAnswerTokens
	}
	if cfg.PromptChunkChars <= 0 {
		cfg.PromptChunkChars = DefaultPromptChunkChars
	}

	return &Service{
		store:     docs,
		embedder:  embedder,
		generator: generator,
		index:     idx,
		chunker:   ch,
		logger:    logger,
		cfg:       cfg,
	}
}

// Ask answers a question over the ingested corpus. The pipeline is
// validate, embed, search, hydrate, score, synthesize. An empty index,
// an empty search result, or a fully failed hydration each produce a
// terminal answer with zero confidence and no chunks rather than an
// error. Generation failure degrades to an extractive answer and never
// fails the request.
func (s *Service) Ask(ctx context.Context, question string, topK int) (*AnswerResult, error) {
	question = strings.TrimSpace(question)
	if len(question) < minQuestionLen {
		return nil, dqerr.Errorf(dqerr.CodeQueryValidateInvalid,
			"question must be at least %d characters long", minQuestionLen)
	}

	if s.index.Count() == 0 {
		return emptyAnswer(msgNoResults), nil
	}

	queryVec, err := s.embedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Search(queryVec, s.clampTopK(topK))
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return emptyAnswer(msgNoResults), nil
	}

	retrieved, err := s.hydrate(ctx, hits, 0)
	if err != nil {
		return nil, err
	}
	if len(retrieved) == 0 {
		return emptyAnswer(msgNothingHydrated), nil
	}

	confidence := confidenceOf(retrieved)
	answer := s.synthesize(ctx, question, retrieved)

	s.logger.Info("answered question",
		"retrieved", len(retrieved),
		"confidence", confidence)

	return &AnswerResult{
		Answer:     answer,
		Chunks:     retrieved,
		Confidence: confidence,
	}, nil
}

// Search is the diagnostic retrieval path: embed, search, hydrate. No
// synthesis, chunk content capped for readability.
func (s *Service) Search(ctx context.Context, query string, topK int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < minQuestionLen {
		return nil, dqerr.Errorf(dqerr.CodeQueryValidateInvalid,
			"query must be at least %d characters long", minQuestionLen)
	}

	result := &SearchResult{Query: query, Results: []RetrievedChunk{}}

	if s.index.Count() == 0 {
		return result, nil
	}

	queryVec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Search(queryVec, s.clampTopK(topK))
	if err != nil {
		return nil, err
	}

	retrieved, err := s.hydrate(ctx, hits, searchExcerptChars)
	if err != nil {
		return nil, err
	}

	result.Results = retrieved
	result.Total = len(retrieved)
	return result, nil
}

// Status aggregates readiness across the document store, embedding
// provider, vector index, and generation provider. Ready requires at
// least one embedded chunk, at least one indexed vector, and an
// available generator; degraded answers are still served without the
// latter.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	docCount, err := s.store.CountDocuments(ctx)
	if err != nil {
		return nil, err
	}
	chunkCounts, err := s.store.CountChunks(ctx)
	if err != nil {
		return nil, err
	}

	stats := s.index.Stats()
	genInfo := s.generatorInfo(ctx)

	return &Status{
		Database: DatabaseStatus{
			TotalDocuments:       docCount,
			TotalChunks:          chunkCounts.Total,
			ChunksWithEmbeddings: chunkCounts.Embedded,
		},
		Embeddings: s.embedder.Info(ctx),
		Index:      stats,
		Generation: genInfo,
		Ready:      chunkCounts.Embedded > 0 && stats.Vectors > 0 && genInfo.Available,
	}, nil
}

// embedQuery embeds a single query string.
func (s *Service) embedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, dqerr.Errorf(dqerr.CodeEmbeddingUpstream,
			"expected 1 query embedding, got %d", len(vectors))
	}
	return vectors[0], nil
}

// hydrate fetches chunk content for each search hit. Missing chunks are
// skipped; any other store failure propagates. A non-zero excerpt
// truncates content for diagnostic output.
func (s *Service) hydrate(ctx context.Context, hits []index.Result, excerptLen int) ([]RetrievedChunk, error) {
	retrieved := make([]RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.store.GetChunkByID(ctx, hit.ChunkID)
		if err != nil {
			if dqerr.IsNotFound(err) {
				s.logger.Warn("indexed chunk missing from store, skipping", "chunk_id", hit.ChunkID)
				continue
			}
			return nil, err
		}

		content := chunk.Content
		if excerptLen > 0 {
			content = excerpt(content, excerptLen)
		}

		retrieved = append(retrieved, RetrievedChunk{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Content:    content,
			Filename:   chunk.Filename,
			ChunkIndex: chunk.Index,
			Score:      hit.Score,
			CreatedAt:  chunk.CreatedAt,
		})
	}
	return retrieved, nil
}

// clampTopK bounds the requested result count to the configured
// ceiling, independent of caller input.
func (s *Service) clampTopK(topK int) int {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > s.cfg.TopKCeiling {
		topK = s.cfg.TopKCeiling
	}
	return topK
}

func (s *Service) generatorInfo(ctx context.Context) provider.GeneratorInfo {
	if s.generator == nil {
		return provider.GeneratorInfo{}
	}
	return s.generator.Info(ctx)
}

// confidenceOf is the mean similarity score of the hydrated chunks,
// scaled to [0,100] and clamped at both ends.
func confidenceOf(retrieved []RetrievedChunk) float64 {
	if len(retrieved) == 0 {
		return 0
	}
	var sum float64
	for _, c := range retrieved {
		sum += c.Score
	}
	confidence := sum / float64(len(retrieved)) * 100
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}

func emptyAnswer(msg string) *AnswerResult {
	return &AnswerResult{
		Answer:     msg,
		Chunks:     []RetrievedChunk{},
		Confidence: 0,
	}
}
