// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

// Package store defines the durable document and chunk storage
// consumed by the retrieval orchestrator. Implementations must be safe
// for concurrent use.
package store

import "context"

// DocumentStore is the durable store of documents and their chunks.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	CreateChunk(ctx context.Context, chunk *Chunk) error
	GetChunkByID(ctx context.Context, id string) (*Chunk, error)
	GetChunksByDocument(ctx context.Context, documentID string) ([]*Chunk, error)
	GetAllChunks(ctx context.Context) ([]*Chunk, error)
	UpdateChunkVector(ctx context.Context, id string, vector []float32) error
	DeleteChunksByDocument(ctx context.Context, documentID string) (int, error)

	CountDocuments(ctx context.Context) (int, error)
	CountChunks(ctx context.Context) (ChunkCounts, error)
	DeleteAll(ctx context.Context) (documents int, chunks int, err error)

	Close() error
}
