// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

// Package sqlite implements store.DocumentStore backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/docquery-dev/docquery/internal/store"
	dqerr "github.com/docquery-dev/docquery/pkg/errors"
)

// Compile-time interface check.
var _ store.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements store.DocumentStore backed by SQLite.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore opens (or creates) a SQLite database at dbPath and
// initialises the documents and chunks tables.
func NewDocumentStore(dbPath string) (*DocumentStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "pinging sqlite db: %w", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "migrating document tables: %w", err)
	}

	return &DocumentStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
	id           TEXT PRIMARY KEY,
	filename     TEXT NOT NULL,
	content_type TEXT NOT NULL DEFAULT 'text/plain',
	total_chunks INTEGER NOT NULL DEFAULT 0,
	char_count   INTEGER NOT NULL DEFAULT 0,
	preview      TEXT NOT NULL DEFAULT '',
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS chunks (
	id          TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	chunk_index INTEGER NOT NULL,
	content     TEXT NOT NULL,
	filename    TEXT NOT NULL,
	vector      TEXT,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id, chunk_index);
`
	_, err := db.Exec(ddl)
	return err
}

// Close closes the underlying database connection.
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

// CreateDocument inserts a document row.
func (s *DocumentStore) CreateDocument(ctx context.Context, doc *store.Document) error {
	const q = `INSERT INTO documents (id, filename, content_type, total_chunks, char_count, preview, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, q,
		doc.ID, doc.Filename, doc.ContentType, doc.TotalChunks, doc.CharCount, doc.Preview, formatTime(doc.CreatedAt))
	if err != nil {
		return dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "inserting document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument retrieves a document by id.
func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*store.Document, error) {
	const q = `SELECT id, filename, content_type, total_chunks, char_count, preview, created_at
FROM documents WHERE id = ?`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dqerr.New(dqerr.CodeStoreDocumentNotFound, "document not found", dqerr.FieldDocumentID(id))
	}
	if err != nil {
		return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "querying document %s: %w", id, err)
	}
	return doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *DocumentStore) ListDocuments(ctx context.Context) ([]*store.Document, error) {
	const q = `SELECT id, filename, content_type, total_chunks, char_count, preview, created_at
FROM documents ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "listing documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*store.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "scanning document row: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "iterating documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document row. Its chunks cascade.
func (s *DocumentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "deleting document %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "deleting document %s: %w", id, err)
	}
	if n == 0 {
		return dqerr.New(dqerr.CodeStoreDocumentNotFound, "document not found", dqerr.FieldDocumentID(id))
	}
	return nil
}

// CreateChunk inserts a chunk row. The vector column stays NULL until
// the chunk is embedded.
func (s *DocumentStore) CreateChunk(ctx context.Context, chunk *store.Chunk) error {
	vec, err := marshalVector(chunk.Vector)
	if err != nil {
		return err
	}

	const q = `INSERT INTO chunks (id, document_id, chunk_index, content, filename, vector, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, q,
		chunk.ID, chunk.DocumentID, chunk.Index, chunk.Content, chunk.Filename, vec, formatTime(chunk.CreatedAt))
	if err != nil {
		return dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "inserting chunk %s: %w", chunk.ID, err)
	}
	return nil
}

// GetChunkByID retrieves a chunk by id.
func (s *DocumentStore) GetChunkByID(ctx context.Context, id string) (*store.Chunk, error) {
	const q = `SELECT id, document_id, chunk_index, content, filename, vector, created_at
FROM chunks WHERE id = ?`

	chunk, err := scanChunk(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, dqerr.New(dqerr.CodeStoreChunkNotFound, "chunk not found", dqerr.FieldChunkID(id))
	}
	if err != nil {
		return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "querying chunk %s: %w", id, err)
	}
	return chunk, nil
}

// GetChunksByDocument returns a document's chunks in index order.
func (s *DocumentStore) GetChunksByDocument(ctx context.Context, documentID string) ([]*store.Chunk, error) {
	const q = `SELECT id, document_id, chunk_index, content, filename, vector, created_at
FROM chunks WHERE document_id = ? ORDER BY chunk_index`

	return s.queryChunks(ctx, q, documentID)
}

// GetAllChunks returns every chunk in the store.
func (s *DocumentStore) GetAllChunks(ctx context.Context) ([]*store.Chunk, error) {
	const q = `SELECT id, document_id, chunk_index, content, filename, vector, created_at
FROM chunks ORDER BY document_id, chunk_index`

	return s.queryChunks(ctx, q)
}

// UpdateChunkVector stores the embedding for a chunk.
func (s *DocumentStore) UpdateChunkVector(ctx context.Context, id string, vector []float32) error {
	vec, err := marshalVector(vector)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `UPDATE chunks SET vector = ? WHERE id = ?`, vec, id)
	if err != nil {
		return dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "updating chunk vector %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "updating chunk vector %s: %w", id, err)
	}
	if n == 0 {
		return dqerr.New(dqerr.CodeStoreChunkNotFound, "chunk not found", dqerr.FieldChunkID(id))
	}
	return nil
}

// DeleteChunksByDocument removes all chunks of a document and returns
// the number deleted.
func (s *DocumentStore) DeleteChunksByDocument(ctx context.Context, documentID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, documentID)
	if err != nil {
		return 0, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "deleting chunks for document %s: %w", documentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "deleting chunks for document %s: %w", documentID, err)
	}
	return int(n), nil
}

// CountDocuments returns the number of documents.
func (s *DocumentStore) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "counting documents: %w", err)
	}
	return n, nil
}

// CountChunks returns total and embedded chunk counts.
func (s *DocumentStore) CountChunks(ctx context.Context) (store.ChunkCounts, error) {
	var counts store.ChunkCounts
	const q = `SELECT COUNT(*), COUNT(vector) FROM chunks`
	if err := s.db.QueryRowContext(ctx, q).Scan(&counts.Total, &counts.Embedded); err != nil {
		return store.ChunkCounts{}, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "counting chunks: %w", err)
	}
	return counts, nil
}

// DeleteAll removes every document and chunk, returning the counts.
func (s *DocumentStore) DeleteAll(ctx context.Context) (int, int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	chunksRes, err := tx.ExecContext(ctx, `DELETE FROM chunks`)
	if err != nil {
		return 0, 0, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "deleting all chunks: %w", err)
	}
	docsRes, err := tx.ExecContext(ctx, `DELETE FROM documents`)
	if err != nil {
		return 0, 0, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "deleting all documents: %w", err)
	}

	chunks, _ := chunksRes.RowsAffected()
	docs, _ := docsRes.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, 0, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "committing delete all: %w", err)
	}
	return int(docs), int(chunks), nil
}

func (s *DocumentStore) queryChunks(ctx context.Context, q string, args ...any) ([]*store.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "querying chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []*store.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "scanning chunk row: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "iterating chunks: %w", err)
	}
	return chunks, nil
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*store.Document, error) {
	var doc store.Document
	var created string
	if err := row.Scan(&doc.ID, &doc.Filename, &doc.ContentType, &doc.TotalChunks, &doc.CharCount, &doc.Preview, &created); err != nil {
		return nil, err
	}
	doc.CreatedAt = parseTime(created)
	return &doc, nil
}

func scanChunk(row scanner) (*store.Chunk, error) {
	var chunk store.Chunk
	var created string
	var vec sql.NullString
	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Index, &chunk.Content, &chunk.Filename, &vec, &created); err != nil {
		return nil, err
	}
	chunk.CreatedAt = parseTime(created)

	if vec.Valid && vec.String != "" {
		if err := json.Unmarshal([]byte(vec.String), &chunk.Vector); err != nil {
			return nil, err
		}
	}
	return &chunk, nil
}

// marshalVector encodes a vector as JSON for the nullable vector
// column. A nil vector maps to NULL.
func marshalVector(vector []float32) (any, error) {
	if len(vector) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(vector)
	if err != nil {
		return nil, dqerr.Errorf(dqerr.CodeStoreDatabaseFailure, "marshalling vector: %w", err)
	}
	return string(raw), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
