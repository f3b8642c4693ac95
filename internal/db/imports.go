package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// RecordImport stores the trace of an applied import
func (db *DB) RecordImport(ctx context.Context, record *ImportRecord) error {
	sections := record.Sections
	if sections == nil {
		sections = []string{}
	}
	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}
	overwritesJSON, err := json.Marshal(record.Overwrites)
	if err != nil {
		return fmt.Errorf("failed to marshal overwrites: %w", err)
	}
	if record.Overwrites == nil {
		overwritesJSON = []byte("[]")
	}

	err = db.pool.QueryRow(ctx,
		`INSERT INTO import_records (student_id, document_name, document_hash, sections, overwrites)
		 VALUES ($1, $2, $3, $4::jsonb, $5::jsonb)
		 RETURNING id, created_at`,
		record.StudentID, record.DocumentName, record.DocumentHash, sectionsJSON, overwritesJSON,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return &NotFoundError{ID: record.StudentID}
		}
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}

// ListImports returns the most recent imports of a student, newest first
func (db *DB) ListImports(ctx context.Context, studentID uuid.UUID, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, student_id, document_name, document_hash, sections, overwrites, created_at
		 FROM import_records WHERE student_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		studentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	defer rows.Close()

	records := []ImportRecord{}
	for rows.Next() {
		var r ImportRecord
		var sectionsJSON, overwritesJSON []byte
		if err := rows.Scan(&r.ID, &r.StudentID, &r.DocumentName, &r.DocumentHash,
			&sectionsJSON, &overwritesJSON, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		if err := decodeImportColumns(&r, sectionsJSON, overwritesJSON); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list imports: %w", err)
	}
	return records, nil
}

// decodeImportColumns fills the JSONB columns of an import record.
func decodeImportColumns(r *ImportRecord, sectionsJSON, overwritesJSON []byte) error {
	if sectionsJSON != nil {
		if err := json.Unmarshal(sectionsJSON, &r.Sections); err != nil {
			return fmt.Errorf("failed to parse import sections: %w", err)
		}
	}
	if overwritesJSON != nil {
		if err := json.Unmarshal(overwritesJSON, &r.Overwrites); err != nil {
			return fmt.Errorf("failed to parse import overwrites: %w", err)
		}
	}
	return nil
}
