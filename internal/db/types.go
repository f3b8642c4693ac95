package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/ppi-assistant/internal/types"
)

// DefaultListLimit caps ListStudents when no limit is given
const DefaultListLimit = 100

// Store is the persistence contract shared by the PostgreSQL and in-memory stores.
type Store interface {
	CreateStudent(ctx context.Context, input *StudentCreateInput) (*types.StudentProfile, error)
	GetStudent(ctx context.Context, id uuid.UUID) (*types.StudentProfile, error)
	ListStudents(ctx context.Context, filters StudentFilters) ([]types.StudentProfile, error)
	ApplyPatch(ctx context.Context, id uuid.UUID, patch types.ProfilePatch) (*types.StudentProfile, error)
	DeleteStudent(ctx context.Context, id uuid.UUID) error
	RecordImport(ctx context.Context, record *ImportRecord) error
	ListImports(ctx context.Context, studentID uuid.UUID, limit int) ([]ImportRecord, error)
}

// StudentCreateInput holds the fields needed to create a student
type StudentCreateInput struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	ClassName string `json:"class_name,omitempty" validate:"max=100"`

	types.AdministrativeFields
}

// StudentFilters holds optional filters for listing students
type StudentFilters struct {
	ClassName string
	Limit     int
}

// ImportRecord is the trace of one applied import. It keeps which sections
// were written, never the extracted content itself.
type ImportRecord struct {
	ID           uuid.UUID           `json:"id"`
	StudentID    uuid.UUID           `json:"student_id"`
	DocumentName string              `json:"document_name"`
	DocumentHash string              `json:"document_hash"`
	Sections     []string            `json:"sections"`
	Overwrites   []types.FieldChange `json:"overwrites,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// studentDocument is the JSONB layout of a student row. Top-level keys are
// the sections a ProfilePatch replaces.
type studentDocument struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ClassName string `json:"class_name,omitempty"`

	types.AdministrativeFields

	FamilyContacts []types.FamilyContact `json:"family_contacts"`

	Strengths     types.CategoryGroup `json:"strengths"`
	Difficulties  types.CategoryGroup `json:"difficulties"`
	Needs         types.CategoryGroup `json:"needs"`
	GlobalProfile types.CategoryGroup `json:"global_profile"`
}

func newStudentDocument(input *StudentCreateInput) studentDocument {
	profile := types.NewStudentProfile(input.FirstName, input.LastName)
	profile.ClassName = input.ClassName
	profile.AdministrativeFields = input.AdministrativeFields
	return documentFromProfile(profile)
}

func documentFromProfile(p types.StudentProfile) studentDocument {
	return studentDocument{
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		ClassName:            p.ClassName,
		AdministrativeFields: p.AdministrativeFields,
		FamilyContacts:       p.FamilyContacts,
		Strengths:            p.Strengths,
		Difficulties:         p.Difficulties,
		Needs:                p.Needs,
		GlobalProfile:        p.GlobalProfile,
	}
}

func (d studentDocument) profile(id uuid.UUID, createdAt, updatedAt time.Time) types.StudentProfile {
	p := types.StudentProfile{
		ID:                   id,
		FirstName:            d.FirstName,
		LastName:             d.LastName,
		ClassName:            d.ClassName,
		AdministrativeFields: d.AdministrativeFields,
		FamilyContacts:       d.FamilyContacts,
		Strengths:            d.Strengths,
		Difficulties:         d.Difficulties,
		Needs:                d.Needs,
		GlobalProfile:        d.GlobalProfile,
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
	}
	p.Normalize()
	return p
}
