package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ppi-assistant/internal/types"
)

func strPtr(s string) *string { return &s }

func TestMemory_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	created, err := store.CreateStudent(ctx, &StudentCreateInput{
		FirstName: "Lina",
		LastName:  "Martin",
		ClassName: "ULIS",
		AdministrativeFields: types.AdministrativeFields{
			Level: "CM2",
		},
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, "CM2", created.Level)
	assert.NotNil(t, created.FamilyContacts)
	assert.NotNil(t, created.Strengths)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.GetStudent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestMemory_GetMissing(t *testing.T) {
	got, err := NewMemory().GetStudent(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	p := store.Put(types.NewStudentProfile("Lina", "Martin"))

	got, err := store.GetStudent(ctx, p.ID)
	require.NoError(t, err)
	got.Strengths["interests"] = []string{"dessin"}
	got.FamilyContacts = append(got.FamilyContacts, types.FamilyContact{Name: "X"})

	again, err := store.GetStudent(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Strengths)
	assert.Empty(t, again.FamilyContacts)
}

func TestMemory_ListStudents(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	for _, in := range []StudentCreateInput{
		{FirstName: "Zoé", LastName: "Bernard", ClassName: "ULIS"},
		{FirstName: "Adam", LastName: "Bernard", ClassName: "CM1"},
		{FirstName: "Lina", LastName: "Aubert", ClassName: "ULIS"},
	} {
		_, err := store.CreateStudent(ctx, &in)
		require.NoError(t, err)
	}

	all, err := store.ListStudents(ctx, StudentFilters{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Aubert", all[0].LastName)
	assert.Equal(t, "Adam", all[1].FirstName)
	assert.Equal(t, "Zoé", all[2].FirstName)

	ulis, err := store.ListStudents(ctx, StudentFilters{ClassName: "ULIS"})
	require.NoError(t, err)
	assert.Len(t, ulis, 2)

	limited, err := store.ListStudents(ctx, StudentFilters{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemory_ApplyPatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	current := types.NewStudentProfile("Lina", "Martin")
	current.Level = "CM2"
	current.Strengths["academic_skills"] = []string{"lecture"}
	current.Needs["human_assistance"] = []string{"AESH"}
	p := store.Put(current)

	updated, err := store.ApplyPatch(ctx, p.ID, types.ProfilePatch{
		Level:     strPtr("6ème"),
		Strengths: types.CategoryGroup{"academic_skills": {"lecture", "écriture"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "6ème", updated.Level)
	assert.Equal(t, []string{"lecture", "écriture"}, updated.Strengths["academic_skills"])
	assert.Equal(t, []string{"AESH"}, updated.Needs["human_assistance"])
	assert.Equal(t, "Lina", updated.FirstName)
}

func TestMemory_ApplyPatch_ExplicitEmptySection(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	current := types.NewStudentProfile("Lina", "Martin")
	current.FamilyContacts = []types.FamilyContact{{Name: "Marie Dupont"}}
	p := store.Put(current)

	updated, err := store.ApplyPatch(ctx, p.ID, types.ProfilePatch{FamilyContacts: []types.FamilyContact{}})
	require.NoError(t, err)
	assert.Empty(t, updated.FamilyContacts)
}

func TestMemory_ApplyPatch_EmptyPatchDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	p := store.Put(types.NewStudentProfile("Lina", "Martin"))

	updated, err := store.ApplyPatch(ctx, p.ID, types.ProfilePatch{})
	require.NoError(t, err)
	assert.Equal(t, p.UpdatedAt, updated.UpdatedAt)
}

func TestMemory_ApplyPatch_NotFound(t *testing.T) {
	_, err := NewMemory().ApplyPatch(context.Background(), uuid.New(), types.ProfilePatch{Level: strPtr("CP")})

	var notFound *NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestMemory_DeleteStudent(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	p := store.Put(types.NewStudentProfile("Lina", "Martin"))
	require.NoError(t, store.RecordImport(ctx, &ImportRecord{StudentID: p.ID, DocumentName: "a.txt"}))

	require.NoError(t, store.DeleteStudent(ctx, p.ID))

	got, err := store.GetStudent(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	records, err := store.ListImports(ctx, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, records)

	var notFound *NotFoundError
	assert.True(t, errors.As(store.DeleteStudent(ctx, p.ID), &notFound))
}

func TestMemory_Imports(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	p := store.Put(types.NewStudentProfile("Lina", "Martin"))

	first := &ImportRecord{StudentID: p.ID, DocumentName: "gevasco.txt", DocumentHash: "h1", Sections: []string{"level"}}
	second := &ImportRecord{
		StudentID:    p.ID,
		DocumentName: "notification.html",
		DocumentHash: "h2",
		Sections:     []string{"notification_title"},
		Overwrites:   []types.FieldChange{{Field: "level", Previous: "CM2", Proposed: "6ème"}},
	}
	require.NoError(t, store.RecordImport(ctx, first))
	require.NoError(t, store.RecordImport(ctx, second))
	assert.NotEqual(t, uuid.Nil, first.ID)

	records, err := store.ListImports(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "notification.html", records[0].DocumentName)
	assert.Equal(t, "gevasco.txt", records[1].DocumentName)

	limited, err := store.ListImports(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	var notFound *NotFoundError
	assert.True(t, errors.As(store.RecordImport(ctx, &ImportRecord{StudentID: uuid.New()}), &notFound))
}
