package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/ppi-assistant/internal/reconcile"
	"github.com/jonathan/ppi-assistant/internal/types"
)

// Memory is an in-process Store used by tests and offline CLI runs.
// Patches are applied under one lock, matching the single-statement
// update of the PostgreSQL store.
type Memory struct {
	mu       sync.RWMutex
	students map[uuid.UUID]types.StudentProfile
	imports  map[uuid.UUID][]ImportRecord
	now      func() time.Time
}

var _ Store = (*Memory)(nil)
var _ Store = (*DB)(nil)

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		students: make(map[uuid.UUID]types.StudentProfile),
		imports:  make(map[uuid.UUID][]ImportRecord),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Put stores p as is, assigning an ID when it has none, and returns the stored copy.
func (m *Memory) Put(p types.StudentProfile) types.StudentProfile {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = p.Clone()
	p.Normalize()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now()
		p.UpdatedAt = p.CreatedAt
	}
	m.students[p.ID] = p
	return p.Clone()
}

// CreateStudent inserts a new student with empty profile sections
func (m *Memory) CreateStudent(_ context.Context, input *StudentCreateInput) (*types.StudentProfile, error) {
	doc := newStudentDocument(input)
	now := m.now()
	p := m.Put(doc.profile(uuid.New(), now, now))
	return &p, nil
}

// GetStudent retrieves a student by ID. Returns nil, nil when not found.
func (m *Memory) GetStudent(_ context.Context, id uuid.UUID) (*types.StudentProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	out := p.Clone()
	return &out, nil
}

// ListStudents retrieves students sorted by name with optional filters
func (m *Memory) ListStudents(_ context.Context, filters StudentFilters) ([]types.StudentProfile, error) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultListLimit
	}

	m.mu.RLock()
	students := []types.StudentProfile{}
	for _, p := range m.students {
		if filters.ClassName != "" && p.ClassName != filters.ClassName {
			continue
		}
		students = append(students, p.Clone())
	}
	m.mu.RUnlock()

	sort.Slice(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.LastName != b.LastName {
			return a.LastName < b.LastName
		}
		if a.FirstName != b.FirstName {
			return a.FirstName < b.FirstName
		}
		return a.ID.String() < b.ID.String()
	})

	if len(students) > filters.Limit {
		students = students[:filters.Limit]
	}
	return students, nil
}

// ApplyPatch overwrites the sections carried by patch. An empty patch performs no write.
func (m *Memory) ApplyPatch(_ context.Context, id uuid.UUID, patch types.ProfilePatch) (*types.StudentProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.students[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	if !patch.IsEmpty() {
		current = reconcile.Apply(current, patch)
		current.UpdatedAt = m.now()
		m.students[id] = current
	}
	out := current.Clone()
	return &out, nil
}

// DeleteStudent removes a student and its import records
func (m *Memory) DeleteStudent(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return &NotFoundError{ID: id}
	}
	delete(m.students, id)
	delete(m.imports, id)
	return nil
}

// RecordImport stores the trace of an applied import
func (m *Memory) RecordImport(_ context.Context, record *ImportRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[record.StudentID]; !ok {
		return &NotFoundError{ID: record.StudentID}
	}
	record.ID = uuid.New()
	record.CreatedAt = m.now()

	stored := *record
	stored.Sections = append([]string{}, record.Sections...)
	stored.Overwrites = append([]types.FieldChange(nil), record.Overwrites...)
	m.imports[record.StudentID] = append(m.imports[record.StudentID], stored)
	return nil
}

// ListImports returns the most recent imports of a student, newest first
func (m *Memory) ListImports(_ context.Context, studentID uuid.UUID, limit int) ([]ImportRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.imports[studentID]
	records := []ImportRecord{}
	for i := len(history) - 1; i >= 0 && len(records) < limit; i-- {
		records = append(records, history[i])
	}
	return records, nil
}
