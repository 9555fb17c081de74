// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docquery-dev/docquery/internal/store"
	dqerr "github.com/docquery-dev/docquery/pkg/errors"
)

const previewChars = 1000

// Ingest cleans and chunks raw text, persisting one document row plus
// its ordered chunk rows. Chunks are created without vectors; a later
// EmbedDocument or EmbedAll call embeds and indexes them.
func (s *Service) Ingest(ctx context.Context, text, filename, contentType string) (*IngestResult, error) {
	text = strings.TrimSpace(text)
	if len(text) < minIngestLen {
		return nil, dqerr.Errorf(dqerr.CodeIngestValidateInvalid,
			"document text must be at least %d characters long", minIngestLen)
	}

	if filename == "" {
		filename = fmt.Sprintf("text_document_%d.txt", time.Now().Unix())
	}
	if contentType == "" {
		contentType = "text/plain"
	}
	if !strings.HasPrefix(contentType, "text/") {
		return nil, dqerr.Errorf(dqerr.CodeIngestValidateInvalid,
			"unsupported content type %q: binary formats such as PDF must have their text extracted before ingestion", contentType)
	}

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, dqerr.New(dqerr.CodeIngestValidateInvalid,
			"document text produced no usable chunks")
	}

	now := time.Now().UTC()
	doc := &store.Document{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentType: contentType,
		TotalChunks: len(chunks),
		CharCount:   len(text),
		Preview:     excerpt(text, previewChars),
		CreatedAt:   now,
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	for i, content := range chunks {
		chunk := &store.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Index:      i,
			Content:    content,
			Filename:   filename,
			CreatedAt:  now,
		}
		if err := s.store.CreateChunk(ctx, chunk); err != nil {
			return nil, err
		}
	}

	s.logger.Info("ingested document",
		"document_id", doc.ID,
		"filename", filename,
		"chunks", len(chunks))

	return &IngestResult{
		DocumentID:    doc.ID,
		Filename:      filename,
		ChunksCreated: len(chunks),
	}, nil
}

// EmbedDocument embeds every chunk of one document and adds the
// vectors to the index. Already-embedded chunks are skipped unless
// force is set; force first removes the document's vectors from the
// index so re-adding cannot duplicate chunk ids.
func (s *Service) EmbedDocument(ctx context.Context, documentID string, force bool) (*EmbedResult, error) {
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	chunks, err := s.store.GetChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	pending := make([]*store.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Embedded() && !force {
			continue
		}
		pending = append(pending, chunk)
	}
	if len(pending) == 0 {
		return &EmbedResult{DocumentsProcessed: 1}, nil
	}

	if force {
		ids := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			if chunk.Embedded() {
				ids = append(ids, chunk.ID)
			}
		}
		if len(ids) > 0 {
			if err := s.index.Remove(ids); err != nil {
				return nil, err
			}
		}
	}

	processed, err := s.embedChunks(ctx, pending)
	if err != nil {
		return nil, err
	}

	s.logger.Info("embedded document",
		"document_id", documentID,
		"chunks", processed)

	return &EmbedResult{
		ChunksProcessed:    processed,
		DocumentsProcessed: 1,
	}, nil
}

// EmbedAll embeds every chunk in the store that has no vector yet,
// grouped per document. A document whose embedding fails is logged and
// skipped so one upstream failure does not abort the whole batch.
func (s *Service) EmbedAll(ctx context.Context) (*EmbedResult, error) {
	chunks, err := s.store.GetAllChunks(ctx)
	if err != nil {
		return nil, err
	}

	byDoc := make(map[string][]*store.Chunk)
	var order []string
	for _, chunk := range chunks {
		if chunk.Embedded() {
			continue
		}
		if _, seen := byDoc[chunk.DocumentID]; !seen {
			order = append(order, chunk.DocumentID)
		}
		byDoc[chunk.DocumentID] = append(byDoc[chunk.DocumentID], chunk)
	}

	result := &EmbedResult{}
	for _, documentID := range order {
		processed, err := s.embedChunks(ctx, byDoc[documentID])
		if err != nil {
			s.logger.Warn("embedding failed for document, skipping",
				"document_id", documentID,
				"error", err)
			continue
		}
		result.ChunksProcessed += processed
		result.DocumentsProcessed++
	}

	s.logger.Info("embedded pending chunks",
		"documents", result.DocumentsProcessed,
		"chunks", result.ChunksProcessed)

	return result, nil
}

// embedChunks embeds a batch of chunks, persists each vector, and adds
// the batch to the index. The embedding call happens before any store
// or index mutation so an upstream failure leaves both untouched.
func (s *Service) embedChunks(ctx context.Context, chunks []*store.Chunk) (int, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(chunks) {
		return 0, dqerr.Errorf(dqerr.CodeEmbeddingUpstream,
			"expected %d embeddings, got %d", len(chunks), len(vectors))
	}

	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		if err := s.store.UpdateChunkVector(ctx, chunk.ID, vectors[i]); err != nil {
			return 0, err
		}
		ids[i] = chunk.ID
	}

	if err := s.index.Add(vectors, ids); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// RebuildIndex repopulates the index from the vectors persisted in the
// store. Meant for startup reconciliation after the index blob was
// lost or discarded as corrupt.
func (s *Service) RebuildIndex(ctx context.Context) (int, error) {
	chunks, err := s.store.GetAllChunks(ctx)
	if err != nil {
		return 0, err
	}

	var vectors [][]float32
	var ids []string
	for _, chunk := range chunks {
		if !chunk.Embedded() {
			continue
		}
		vectors = append(vectors, chunk.Vector)
		ids = append(ids, chunk.ID)
	}

	if err := s.index.Clear(); err != nil {
		return 0, err
	}
	if len(vectors) == 0 {
		return 0, nil
	}
	if err := s.index.Add(vectors, ids); err != nil {
		return 0, err
	}

	s.logger.Info("rebuilt vector index from store", "vectors", len(vectors))
	return len(vectors), nil
}

// ListDocuments returns all documents, newest first.
func (s *Service) ListDocuments(ctx context.Context) ([]*store.Document, error) {
	return s.store.ListDocuments(ctx)
}

// GetDocument returns one document together with its chunk counts.
func (s *Service) GetDocument(ctx context.Context, documentID string) (*DocumentDetail, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.store.GetChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	embedded := 0
	for _, chunk := range chunks {
		if chunk.Embedded() {
			embedded++
		}
	}

	return &DocumentDetail{
		Document:             doc,
		Chunks:               len(chunks),
		ChunksWithEmbeddings: embedded,
	}, nil
}

// DeleteDocument removes a document, its chunks, and its index
// vectors. Index removal runs first; a failure there is logged but
// does not block the store delete, the index rebuilds on restart.
func (s *Service) DeleteDocument(ctx context.Context, documentID string) (*DeleteResult, error) {
	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	chunks, err := s.store.GetChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.Embedded() {
			ids = append(ids, chunk.ID)
		}
	}
	if len(ids) > 0 {
		if err := s.index.Remove(ids); err != nil {
			s.logger.Warn("failed to remove vectors from index",
				"document_id", documentID,
				"error", err)
		}
	}

	deleted, err := s.store.DeleteChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return nil, err
	}

	s.logger.Info("deleted document",
		"document_id", documentID,
		"chunks", deleted)

	return &DeleteResult{
		DocumentID:    documentID,
		Filename:      doc.Filename,
		ChunksDeleted: deleted,
	}, nil
}

// DeleteAll clears the store and the index.
func (s *Service) DeleteAll(ctx context.Context) (*DeleteAllResult, error) {
	if err := s.index.Clear(); err != nil {
		return nil, err
	}

	docs, chunks, err := s.store.DeleteAll(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("deleted all documents", "documents", docs, "chunks", chunks)

	return &DeleteAllResult{
		DocumentsDeleted: docs,
		ChunksDeleted:    chunks,
	}, nil
}
