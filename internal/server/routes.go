// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/docquery-dev/docquery/internal/retrieval"
	"github.com/docquery-dev/docquery/internal/store"
)

func (s *Server) registerRoutes() {
	// Query endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "ask",
		Method:      http.MethodPost,
		Path:        "/api/v1/ask",
		Summary:     "Ask a question over the ingested documents",
		Tags:        []string{"query"},
	}, s.handleAsk)

	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Similarity search without answer synthesis",
		Tags:        []string{"query"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "system-status",
		Method:      http.MethodGet,
		Path:        "/api/v1/status",
		Summary:     "System readiness and component status",
		Tags:        []string{"system"},
	}, s.handleStatus)

	// Document endpoints
	huma.Register(s.api, huma.Operation{
		OperationID: "ingest-document",
		Method:      http.MethodPost,
		Path:        "/api/v1/documents",
		Summary:     "Ingest a text document",
		Tags:        []string{"documents"},
	}, s.handleIngest)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents",
		Summary:     "List ingested documents",
		Tags:        []string{"documents"},
	}, s.handleListDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-document",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/{id}",
		Summary:     "Get document details",
		Tags:        []string{"documents"},
	}, s.handleGetDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "embed-document",
		Method:      http.MethodPost,
		Path:        "/api/v1/documents/{id}/embed",
		Summary:     "Embed and index a document's chunks",
		Tags:        []string{"documents"},
	}, s.handleEmbedDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "embed-all-documents",
		Method:      http.MethodPost,
		Path:        "/api/v1/documents/embed-all",
		Summary:     "Embed every chunk without a vector",
		Tags:        []string{"documents"},
	}, s.handleEmbedAll)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-document",
		Method:      http.MethodDelete,
		Path:        "/api/v1/documents/{id}",
		Summary:     "Delete a document and its vectors",
		Tags:        []string{"documents"},
	}, s.handleDeleteDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "delete-all-documents",
		Method:      http.MethodDelete,
		Path:        "/api/v1/documents",
		Summary:     "Delete all documents and clear the index",
		Tags:        []string{"documents"},
	}, s.handleDeleteAll)
}

// --- Request/Response types for huma ---

type askInput struct {
	Body struct {
		Question string `json:"question" minLength:"3" doc:"Question to answer"`
		TopK     int    `json:"top_k,omitempty" minimum:"0" doc:"Number of chunks to retrieve"`
	}
}
type askOutput struct {
	Body retrieval.AnswerResult
}

type searchInput struct {
	Query string `query:"q" minLength:"3" doc:"Search query"`
	TopK  int    `query:"top_k" minimum:"0" doc:"Number of results"`
}
type searchOutput struct {
	Body retrieval.SearchResult
}

type statusOutput struct {
	Body retrieval.Status
}

type ingestInput struct {
	Body struct {
		Text        string `json:"text" minLength:"10" doc:"Raw document text"`
		Filename    string `json:"filename,omitempty" doc:"Source filename"`
		ContentType string `json:"content_type,omitempty" doc:"MIME type of the source; must be text/*"`
	}
}
type ingestOutput struct {
	Body retrieval.IngestResult
}

type listDocumentsOutput struct {
	Body struct {
		Documents []*store.Document `json:"documents"`
		Total     int               `json:"total"`
	}
}

type documentIDInput struct {
	ID string `path:"id" doc:"Document ID"`
}
type getDocumentOutput struct {
	Body retrieval.DocumentDetail
}

type embedDocumentInput struct {
	ID    string `path:"id" doc:"Document ID"`
	Force bool   `query:"force" doc:"Re-embed chunks that already have vectors"`
}
type embedOutput struct {
	Body retrieval.EmbedResult
}

type deleteDocumentOutput struct {
	Body retrieval.DeleteResult
}

type deleteAllOutput struct {
	Body retrieval.DeleteAllResult
}

// --- Handlers ---

func (s *Server) handleAsk(ctx context.Context, input *askInput) (*askOutput, error) {
	result, err := s.service.Ask(ctx, input.Body.Question, input.Body.TopK)
	if err != nil {
		return nil, s.apiError(err, "answering question")
	}
	return &askOutput{Body: *result}, nil
}

func (s *Server) handleSearch(ctx context.Context, input *searchInput) (*searchOutput, error) {
	result, err := s.service.Search(ctx, input.Query, input.TopK)
	if err != nil {
		return nil, s.apiError(err, "searching")
	}
	return &searchOutput{Body: *result}, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	status, err := s.service.Status(ctx)
	if err != nil {
		return nil, s.apiError(err, "reading status")
	}
	return &statusOutput{Body: *status}, nil
}

func (s *Server) handleIngest(ctx context.Context, input *ingestInput) (*ingestOutput, error) {
	result, err := s.service.Ingest(ctx, input.Body.Text, input.Body.Filename, input.Body.ContentType)
	if err != nil {
		return nil, s.apiError(err, "ingesting document")
	}
	return &ingestOutput{Body: *result}, nil
}

func (s *Server) handleListDocuments(ctx context.Context, _ *struct{}) (*listDocumentsOutput, error) {
	docs, err := s.service.ListDocuments(ctx)
	if err != nil {
		return nil, s.apiError(err, "listing documents")
	}
	out := &listDocumentsOutput{}
	out.Body.Documents = docs
	out.Body.Total = len(docs)
	return out, nil
}

func (s *Server) handleGetDocument(ctx context.Context, input *documentIDInput) (*getDocumentOutput, error) {
	detail, err := s.service.GetDocument(ctx, input.ID)
	if err != nil {
		return nil, s.apiError(err, "getting document")
	}
	return &getDocumentOutput{Body: *detail}, nil
}

func (s *Server) handleEmbedDocument(ctx context.Context, input *embedDocumentInput) (*embedOutput, error) {
	result, err := s.service.EmbedDocument(ctx, input.ID, input.Force)
	if err != nil {
		return nil, s.apiError(err, "embedding document")
	}
	return &embedOutput{Body: *result}, nil
}

func (s *Server) handleEmbedAll(ctx context.Context, _ *struct{}) (*embedOutput, error) {
	result, err := s.service.EmbedAll(ctx)
	if err != nil {
		return nil, s.apiError(err, "embedding documents")
	}
	return &embedOutput{Body: *result}, nil
}

func (s *Server) handleDeleteDocument(ctx context.Context, input *documentIDInput) (*deleteDocumentOutput, error) {
	result, err := s.service.DeleteDocument(ctx, input.ID)
	if err != nil {
		return nil, s.apiError(err, "deleting document")
	}
	return &deleteDocumentOutput{Body: *result}, nil
}

func (s *Server) handleDeleteAll(ctx context.Context, _ *struct{}) (*deleteAllOutput, error) {
	result, err := s.service.DeleteAll(ctx)
	if err != nil {
		return nil, s.apiError(err, "deleting documents")
	}
	return &deleteAllOutput{Body: *result}, nil
}
