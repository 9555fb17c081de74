// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package errors_test

import (
	stderrors "errors"
	"net/http"
	"testing"

	dqerr "github.com/docquery-dev/docquery/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIncludesCode(t *testing.T) {
	err := dqerr.New(
		dqerr.CodeQueryValidateInvalid,
		"question too short",
		dqerr.Field("question_len", 2),
	)

	require.Error(t, err)
	assert.Equal(t, dqerr.CodeQueryValidateInvalid, dqerr.CodeOf(err))
	assert.True(t, dqerr.HasCode(err, dqerr.CodeQueryValidateInvalid))
	assert.Contains(t, err.Error(), "question too short")
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := dqerr.Errorf(dqerr.CodeIndexSaveFailure, "writing index blob: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, dqerr.CodeIndexSaveFailure, dqerr.CodeOf(err))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, dqerr.Wrap(nil, dqerr.CodeStoreDatabaseFailure, "ignored"))
	assert.NoError(t, dqerr.Wrapf(nil, dqerr.CodeStoreDatabaseFailure, "ignored"))
}

func TestWrapPreservesChain(t *testing.T) {
	inner := stderrors.New("no such row")
	err := dqerr.Wrap(inner, dqerr.CodeStoreChunkNotFound, "loading chunk", dqerr.FieldChunkID("c-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.True(t, dqerr.IsNotFound(err))
}

func TestClassifiers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", dqerr.New(dqerr.CodeStoreDocumentNotFound, "missing"), dqerr.IsNotFound},
		{"invalid input", dqerr.New(dqerr.CodeIngestValidateInvalid, "too short"), dqerr.IsInvalidInput},
		{"invalid config value", dqerr.New(dqerr.CodeConfigInvalid, "bad dimension"), dqerr.IsInvalidInput},
		{"dimension mismatch", dqerr.New(dqerr.CodeIndexDimensionMismatch, "384 != 512"), dqerr.IsDimensionMismatch},
		{"unavailable", dqerr.New(dqerr.CodeEmbeddingUnavailable, "no embedder"), dqerr.IsUnavailable},
		{"upstream", dqerr.New(dqerr.CodeEmbeddingUpstream, "api error"), dqerr.IsUpstreamFailure},
		{"persistence save", dqerr.New(dqerr.CodeIndexSaveFailure, "write failed"), dqerr.IsPersistence},
		{"persistence load", dqerr.New(dqerr.CodeIndexLoadFailure, "read failed"), dqerr.IsPersistence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
}

func TestClassifiersRejectPlainErrors(t *testing.T) {
	plain := stderrors.New("plain")
	assert.False(t, dqerr.IsNotFound(plain))
	assert.False(t, dqerr.IsInvalidInput(plain))
	assert.False(t, dqerr.IsPersistence(plain))
	assert.Equal(t, dqerr.Code(""), dqerr.CodeOf(plain))
	assert.Equal(t, dqerr.Code(""), dqerr.CodeOf(nil))
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", dqerr.New(dqerr.CodeStoreDocumentNotFound, "missing"), http.StatusNotFound},
		{"validation", dqerr.New(dqerr.CodeQueryValidateInvalid, "short"), http.StatusBadRequest},
		{"embedding unavailable", dqerr.New(dqerr.CodeEmbeddingUnavailable, "down"), http.StatusBadGateway},
		{"embedding upstream", dqerr.New(dqerr.CodeEmbeddingUpstream, "api"), http.StatusBadGateway},
		{"dimension mismatch", dqerr.New(dqerr.CodeIndexDimensionMismatch, "drift"), http.StatusInternalServerError},
		{"internal", dqerr.New(dqerr.CodeServerInternalFailure, "boom"), http.StatusInternalServerError},
		{"plain error", stderrors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dqerr.HTTPStatus(tt.err))
		})
	}
}
