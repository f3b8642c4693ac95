// Package server provides the HTTP REST API for student profiles and document imports.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/ppi-assistant/internal/db"
	"github.com/jonathan/ppi-assistant/internal/fetch"
	"github.com/jonathan/ppi-assistant/internal/importer"
	"github.com/jonathan/ppi-assistant/internal/ingestion"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrImportsDisabled indicates the server runs without an AI provider
type ErrImportsDisabled struct{}

func (e *ErrImportsDisabled) Error() string {
	return "document imports are not configured on this server"
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Wrapped errors are matched through their chain.
func HTTPStatus(err error) int {
	var (
		validationErr  *ErrValidation
		disabledErr    *ErrImportsDisabled
		notFoundErr    *importer.NotFoundError
		dbNotFoundErr  *db.NotFoundError
		extractionErr  *importer.ExtractionError
		saveErr        *importer.SaveError
		unsupportedErr *ingestion.UnsupportedFormatError
		emptyErr       *ingestion.EmptyDocumentError
		tooLargeErr    *ingestion.TooLargeError
		fetchErr       *fetch.Error
	)

	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr), errors.As(err, &dbNotFoundErr):
		return http.StatusNotFound
	case errors.As(err, &unsupportedErr):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &tooLargeErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &emptyErr), errors.As(err, &extractionErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	case errors.As(err, &saveErr), errors.As(err, &disabledErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
