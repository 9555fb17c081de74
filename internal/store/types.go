// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package store

import "time"

// Document is an ingested source text. Its body lives in Chunks; the
// document row keeps metadata and a short preview.
type Document struct {
	ID          string
	Filename    string
	ContentType string
	TotalChunks int
	CharCount   int
	Preview     string
	CreatedAt   time.Time
}

// Chunk is a bounded contiguous span of a document's text, the unit of
// embedding and retrieval. Vector is nil until the chunk is embedded;
// a vector-less chunk is absent from the vector index.
type Chunk struct {
	ID         string
	DocumentID string
	Index      int
	Content    string
	Filename   string
	Vector     []float32
	CreatedAt  time.Time
}

// Embedded reports whether the chunk has an embedding vector.
func (c *Chunk) Embedded() bool {
	return len(c.Vector) > 0
}

// ChunkCounts aggregates chunk totals for status reporting.
type ChunkCounts struct {
	Total    int
	Embedded int
}
