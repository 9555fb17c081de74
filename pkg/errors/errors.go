// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package errors

import (
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeQueryValidateInvalid  Code = "query.validate.invalid_input"
	CodeIngestValidateInvalid Code = "ingest.validate.invalid_input"

	CodeStoreDocumentNotFound Code = "store.document.get.not_found"
	CodeStoreChunkNotFound    Code = "store.chunk.get.not_found"
	CodeStoreDatabaseFailure  Code = "store.database.failure"

	CodeIndexDimensionMismatch Code = "index.vector.dimension_mismatch"
	CodeIndexInvalidInput      Code = "index.vector.invalid_input"
	CodeIndexSaveFailure       Code = "index.persist.save_failure"
	CodeIndexLoadFailure       Code = "index.persist.load_failure"

	CodeEmbeddingUnavailable Code = "provider.embedding.unavailable"
	CodeEmbeddingUpstream    Code = "provider.embedding.upstream_failure"
	CodeGenerationUpstream   Code = "provider.generation.upstream_failure"

	CodeConfigInvalid Code = "config.validate.invalid_value"
	CodeConfigLoad    Code = "config.load.read.failure"

	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerStartFailure    Code = "server.start.failure"
	CodeSetupFailure          Code = "cli.setup.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldDocumentID(value string) Attr {
	return Field("document_id", value)
}

func FieldChunkID(value string) Attr {
	return Field("chunk_id", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	switch code := oopsErr.Code().(type) {
	case Code:
		return code
	case string:
		return Code(code)
	default:
		return ""
	}
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid_input" || r == "invalid_value"
}

func IsDimensionMismatch(err error) bool {
	return HasCode(err, CodeIndexDimensionMismatch)
}

func IsUnavailable(err error) bool {
	return reason(CodeOf(err)) == "unavailable"
}

func IsUpstreamFailure(err error) bool {
	return reason(CodeOf(err)) == "upstream_failure"
}

func IsPersistence(err error) bool {
	r := reason(CodeOf(err))
	return r == "save_failure" || r == "load_failure"
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsUnavailable(err), IsUpstreamFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
