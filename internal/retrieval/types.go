// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package retrieval

import (
	"time"

	"github.com/docquery-dev/docquery/internal/index"
	"github.com/docquery-dev/docquery/internal/provider"
	"github.com/docquery-dev/docquery/internal/store"
)

// RetrievedChunk is a hydrated search hit: the chunk content plus its
// similarity score for the current query.
type RetrievedChunk struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"document_id"`
	Content    string    `json:"content"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	Score      float64   `json:"similarity_score"`
	CreatedAt  time.Time `json:"timestamp"`
}

// AnswerResult is the response to a question: the synthesized (or
// extractive) answer, the chunks it drew on, and a confidence score in
// [0,100] derived from the retrieval scores of this query only.
type AnswerResult struct {
	Answer     string           `json:"answer"`
	Chunks     []RetrievedChunk `json:"retrieved_chunks"`
	Confidence float64          `json:"confidence"`
}

// SearchResult is the response of the diagnostic search-only path.
type SearchResult struct {
	Query   string           `json:"query"`
	Results []RetrievedChunk `json:"results"`
	Total   int              `json:"total_results"`
}

// DatabaseStatus aggregates document store counts.
type DatabaseStatus struct {
	TotalDocuments       int `json:"total_documents"`
	TotalChunks          int `json:"total_chunks"`
	ChunksWithEmbeddings int `json:"chunks_with_embeddings"`
}

// Status is the readiness snapshot across all collaborators.
type Status struct {
	Database   DatabaseStatus         `json:"database"`
	Embeddings provider.EmbedderInfo  `json:"embeddings"`
	Index      index.Stats            `json:"vector_index"`
	Generation provider.GeneratorInfo `json:"generation"`
	Ready      bool                   `json:"system_ready"`
}

// IngestResult reports a completed text ingestion.
type IngestResult struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
}

// EmbedResult reports a completed embedding pass.
type EmbedResult struct {
	ChunksProcessed    int `json:"chunks_processed"`
	DocumentsProcessed int `json:"documents_processed"`
}

// DocumentDetail pairs a document with its chunk embedding progress.
type DocumentDetail struct {
	Document             *store.Document `json:"document"`
	Chunks               int             `json:"chunks"`
	ChunksWithEmbeddings int             `json:"chunks_with_embeddings"`
}

// DeleteResult reports a completed document deletion.
type DeleteResult struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksDeleted int    `json:"chunks_deleted"`
}

// DeleteAllResult reports a full knowledge-base wipe.
type DeleteAllResult struct {
	DocumentsDeleted int `json:"documents_deleted"`
	ChunksDeleted    int `json:"chunks_deleted"`
}
