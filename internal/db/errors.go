package db

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError is returned by writes that target a student that does not exist.
// Reads return nil, nil instead.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("student %s not found", e.ID)
}
