package importer

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError is returned when the target student does not exist
type NotFoundError struct {
	StudentID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("student %s not found", e.StudentID)
}

// ExtractionError is returned when a document could not be extracted.
// Nothing was written; retrying means calling the AI again.
type ExtractionError struct {
	Document string
	Cause    error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed for %s: %v", e.Document, e.Cause)
	}
	return fmt.Sprintf("extraction failed for %s", e.Document)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

// SaveError is returned when the merged profile could not be written.
// The extraction succeeded; retrying the save alone is enough.
type SaveError struct {
	StudentID uuid.UUID
	Attempts  int
	Cause     error
}

func (e *SaveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to save student %s after %d attempt(s): %v", e.StudentID, e.Attempts, e.Cause)
	}
	return fmt.Sprintf("failed to save student %s after %d attempt(s)", e.StudentID, e.Attempts)
}

func (e *SaveError) Unwrap() error {
	return e.Cause
}
