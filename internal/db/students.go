package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/ppi-assistant/internal/types"
)

// -----------------------------------------------------------------------------
// Student Methods
// -----------------------------------------------------------------------------

// CreateStudent inserts a new student with empty profile sections
func (db *DB) CreateStudent(ctx context.Context, input *StudentCreateInput) (*types.StudentProfile, error) {
	docJSON, err := json.Marshal(newStudentDocument(input))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal student: %w", err)
	}

	p, err := scanStudent(db.pool.QueryRow(ctx,
		`INSERT INTO students (doc) VALUES ($1::jsonb)
		 RETURNING id, doc, created_at, updated_at`,
		docJSON,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return p, nil
}

// GetStudent retrieves a student by ID. Returns nil, nil when not found.
func (db *DB) GetStudent(ctx context.Context, id uuid.UUID) (*types.StudentProfile, error) {
	p, err := scanStudent(db.pool.QueryRow(ctx,
		`SELECT id, doc, created_at, updated_at FROM students WHERE id = $1`,
		id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return p, nil
}

// ListStudents retrieves students sorted by name with optional filters
func (db *DB) ListStudents(ctx context.Context, filters StudentFilters) ([]types.StudentProfile, error) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultListLimit
	}

	query := `SELECT id, doc, created_at, updated_at FROM students WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.ClassName != "" {
		query += fmt.Sprintf(" AND doc->>'class_name' = $%d", argNum)
		args = append(args, filters.ClassName)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY doc->>'last_name', doc->>'first_name', id LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	students := []types.StudentProfile{}
	for rows.Next() {
		p, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

// ApplyPatch overwrites the sections carried by patch in a single statement,
// so a patch is applied as a whole or not at all. Sections absent from the
// patch keep their stored value. An empty patch performs no write.
func (db *DB) ApplyPatch(ctx context.Context, id uuid.UUID, patch types.ProfilePatch) (*types.StudentProfile, error) {
	if patch.IsEmpty() {
		p, err := db.GetStudent(ctx, id)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, &NotFoundError{ID: id}
		}
		return p, nil
	}

	patchJSON, err := json.Marshal(patch.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patch: %w", err)
	}

	p, err := scanStudent(db.pool.QueryRow(ctx,
		`UPDATE students SET doc = doc || $2::jsonb, updated_at = NOW()
		 WHERE id = $1
		 RETURNING id, doc, created_at, updated_at`,
		id, patchJSON,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{ID: id}
		}
		return nil, fmt.Errorf("failed to apply patch: %w", err)
	}
	return p, nil
}

// DeleteStudent removes a student and its import records
func (db *DB) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{ID: id}
	}
	return nil
}

func scanStudent(row pgx.Row) (*types.StudentProfile, error) {
	var (
		id                   uuid.UUID
		docJSON              []byte
		doc                  studentDocument
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &docJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse student document: %w", err)
	}
	p := doc.profile(id, createdAt, updatedAt)
	return &p, nil
}
