// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package server

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/docquery-dev/docquery/internal/retrieval"
	"github.com/docquery-dev/docquery/internal/store"
	dqerr "github.com/docquery-dev/docquery/pkg/errors"
)

// RetrievalService is the surface route handlers need from the
// retrieval orchestrator. It is an interface so tests can substitute
// failing implementations.
type RetrievalService interface {
	Ask(ctx context.Context, question string, topK int) (*retrieval.AnswerResult, error)
	Search(ctx context.Context, query string, topK int) (*retrieval.SearchResult, error)
	Status(ctx context.Context) (*retrieval.Status, error)

	Ingest(ctx context.Context, text, filename, contentType string) (*retrieval.IngestResult, error)
	EmbedDocument(ctx context.Context, documentID string, force bool) (*retrieval.EmbedResult, error)
	EmbedAll(ctx context.Context) (*retrieval.EmbedResult, error)

	ListDocuments(ctx context.Context) ([]*store.Document, error)
	GetDocument(ctx context.Context, documentID string) (*retrieval.DocumentDetail, error)
	DeleteDocument(ctx context.Context, documentID string) (*retrieval.DeleteResult, error)
	DeleteAll(ctx context.Context) (*retrieval.DeleteAllResult, error)
}

var _ RetrievalService = (*retrieval.Service)(nil)

// apiError translates a coded service error into the matching huma
// status error. Internal failures get a generic message so store and
// provider details never leak to clients.
func (s *Server) apiError(err error, op string) error {
	switch dqerr.HTTPStatus(err) {
	case 404:
		return huma.Error404NotFound(err.Error())
	case 400:
		return huma.Error400BadRequest(err.Error())
	case 502:
		return huma.Error502BadGateway("upstream provider failure")
	default:
		s.logger.Error("request failed", "op", op, "error", err)
		return huma.Error500InternalServerError(op + " failed")
	}
}
