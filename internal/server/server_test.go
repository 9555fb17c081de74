// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docquery-dev/docquery/internal/retrieval"
	"github.com/docquery-dev/docquery/internal/store"
	dqerr "github.com/docquery-dev/docquery/pkg/errors"
)

// stubService answers every route with canned data, or a single
// injected error when err is set.
type stubService struct {
	err error
}

func (f *stubService) Ask(_ context.Context, question string, _ int) (*retrieval.AnswerResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &retrieval.AnswerResult{
		Answer: "stub answer to " + question,
		Chunks: []retrieval.RetrievedChunk{
			{ChunkID: "c1", DocumentID: "d1", Content: "chunk content", Filename: "a.txt", Score: 0.9},
		},
		Confidence: 90,
	}, nil
}

func (f *stubService) Search(_ context.Context, query string, _ int) (*retrieval.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &retrieval.SearchResult{Query: query, Results: []retrieval.RetrievedChunk{}, Total: 0}, nil
}

func (f *stubService) Status(_ context.Context) (*retrieval.Status, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &retrieval.Status{Ready: true}, nil
}

func (f *stubService) Ingest(_ context.Context, _, filename, _ string) (*retrieval.IngestResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &retrieval.IngestResult{DocumentID: "d1", Filename: filename, ChunksCreated: 3}, nil
}

func (f *stubService) EmbedDocument(_ context.Context, _ string, _ bool) (*retrieval.EmbedResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &retrieval.EmbedResult{ChunksProcessed: 3, DocumentsProcessed: 1}, nil
}

func (f *stubService) EmbedAll(_ context.Context) (*retrieval.EmbedResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &retrieval.EmbedResult{ChunksProcessed: 6, DocumentsProcessed: 2}, nil
}

func (f *stubService) ListDocuments(_ context.Context) ([]*store.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*store.Document{{ID: "d1", Filename: "a.txt"}}, nil
}

func (f *stubService) GetDocument(_ context.Context, documentID string) (*retrieval.DocumentDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &retrieval.DocumentDetail{
		Document: &store.Document{ID: documentID, Filename: "a.txt"},
		Chunks:   3,
	}, nil
}

func (f *stubService) DeleteDocument(_ context.Context, documentID string) (*retrieval.DeleteResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &retrieval.DeleteResult{DocumentID: documentID, ChunksDeleted: 3}, nil
}

func (f *stubService) DeleteAll(_ context.Context) (*retrieval.DeleteAllResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &retrieval.DeleteAllResult{DocumentsDeleted: 2, ChunksDeleted: 6}, nil
}

var _ RetrievalService = (*stubService)(nil)

func newTestServer(t *testing.T, svc RetrievalService) *Server {
	t.Helper()
	srv, err := New(Config{ListenAddr: "127.0.0.1:0"}, svc, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{}, &stubService{}, nil)
	require.Error(t, err)

	_, err = New(Config{ListenAddr: "127.0.0.1:0"}, nil, nil)
	require.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := doJSON(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAskRoute(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ask", `{"question":"what is go","top_k":5}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Answer     string  `json:"answer"`
		Confidence float64 `json:"confidence"`
		Chunks     []struct {
			ChunkID string  `json:"chunk_id"`
			Score   float64 `json:"similarity_score"`
		} `json:"retrieved_chunks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "stub answer to what is go", body.Answer)
	assert.Equal(t, 90.0, body.Confidence)
	require.Len(t, body.Chunks, 1)
	assert.Equal(t, "c1", body.Chunks[0].ChunkID)
}

func TestAskRouteRejectsShortQuestion(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/ask", `{"question":"ab"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestSearchRoute(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/search?q=goroutines&top_k=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"query":"goroutines"`)
}

func TestStatusRoute(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"system_ready":true`)
}

func TestDocumentRoutes(t *testing.T) {
	srv := newTestServer(t, &stubService{})

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/documents",
		`{"text":"some document text long enough","filename":"a.txt"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chunks_created":3`)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/documents/d1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/documents/d1/embed?force=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chunks_processed":3`)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/documents/embed-all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"documents_processed":2`)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/documents/d1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"chunks_deleted":3`)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"documents_deleted":2`)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", dqerr.New(dqerr.CodeStoreDocumentNotFound, "document not found"), http.StatusNotFound},
		{"invalid input", dqerr.New(dqerr.CodeQueryValidateInvalid, "question too short"), http.StatusBadRequest},
		{"upstream", dqerr.New(dqerr.CodeEmbeddingUpstream, "embedding request failed"), http.StatusBadGateway},
		{"internal", dqerr.New(dqerr.CodeStoreDatabaseFailure, "database locked"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &stubService{err: tt.err})
			rec := doJSON(t, srv, http.MethodGet, "/api/v1/documents/d1", "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	srv := newTestServer(t, &stubService{err: dqerr.New(dqerr.CodeStoreDatabaseFailure, "secret path /var/db leaked")})

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/documents/d1", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "/var/db")
}
