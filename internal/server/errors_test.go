package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/ppi-assistant/internal/db"
	"github.com/jonathan/ppi-assistant/internal/fetch"
	"github.com/jonathan/ppi-assistant/internal/importer"
	"github.com/jonathan/ppi-assistant/internal/ingestion"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "first_name", Message: "failed on the 'required' rule"}
	assert.Equal(t, "validation error: first_name - failed on the 'required' rule", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "validation", err: &ErrValidation{Field: "id", Message: "bad"}, expected: http.StatusBadRequest},
		{name: "importer not found", err: &importer.NotFoundError{StudentID: id}, expected: http.StatusNotFound},
		{name: "store not found", err: &db.NotFoundError{ID: id}, expected: http.StatusNotFound},
		{name: "wrapped not found", err: fmt.Errorf("delete: %w", &db.NotFoundError{ID: id}), expected: http.StatusNotFound},
		{name: "extraction", err: &importer.ExtractionError{Document: "a.txt", Cause: errors.New("bad json")}, expected: http.StatusUnprocessableEntity},
		{name: "empty document", err: &ingestion.EmptyDocumentError{Name: "a.txt"}, expected: http.StatusUnprocessableEntity},
		{name: "unsupported format", err: &ingestion.UnsupportedFormatError{Name: "a.pdf"}, expected: http.StatusUnsupportedMediaType},
		{name: "too large", err: &ingestion.TooLargeError{Name: "a.txt", Size: 10, Limit: 1}, expected: http.StatusRequestEntityTooLarge},
		{name: "fetch", err: &fetch.Error{URL: "https://example.com", Message: "HTTP 500"}, expected: http.StatusBadGateway},
		{name: "save", err: &importer.SaveError{StudentID: id, Attempts: 3, Cause: errors.New("timeout")}, expected: http.StatusServiceUnavailable},
		{name: "imports disabled", err: &ErrImportsDisabled{}, expected: http.StatusServiceUnavailable},
		{name: "unknown", err: assert.AnError, expected: http.StatusInternalServerError},
		{name: "nil", err: nil, expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
