package server

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/ppi-assistant/internal/types"
)

func TestCreateStudent(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/students", map[string]any{
		"first_name": " Lina ",
		"last_name":  "Martin",
		"class_name": "CM2 B",
		"level":      "CM2",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decodeBody[CreateStudentResponse](t, w)
	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)

	stored, err := s.store.GetStudent(t.Context(), id)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Lina", stored.FirstName)
	assert.Equal(t, "CM2", stored.Level)
	assert.NotNil(t, stored.Strengths)
	assert.NotNil(t, stored.FamilyContacts)
}

func TestCreateStudent_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  any
		field string
	}{
		{name: "missing last name", body: map[string]any{"first_name": "Lina"}, field: "last_name"},
		{name: "blank first name", body: map[string]any{"first_name": "  ", "last_name": "Martin"}, field: "first_name"},
		{name: "unknown field", body: map[string]any{"first_name": "Lina", "last_name": "Martin", "age": 10}, field: "body"},
		{name: "malformed JSON", body: `{"first_name":`, field: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			w := s.do(t, http.MethodPost, "/students", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeBody[map[string]string](t, w)
			assert.Contains(t, resp["error"], tt.field)
		})
	}
}

func TestListStudents(t *testing.T) {
	s := newTestServer(t)
	seedStudent(s.store)
	other := types.NewStudentProfile("Adam", "Bernard")
	other.ClassName = "CE1 A"
	s.store.Put(other)

	w := s.do(t, http.MethodGet, "/students", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody[struct {
		Students []types.StudentProfile `json:"students"`
		Count    int                    `json:"count"`
	}](t, w)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "Bernard", resp.Students[0].LastName)

	w = s.do(t, http.MethodGet, "/students?class=CM2+B&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody[struct {
		Students []types.StudentProfile `json:"students"`
		Count    int                    `json:"count"`
	}](t, w)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "Martin", resp.Students[0].LastName)
}

func TestGetStudent(t *testing.T) {
	s := newTestServer(t)
	student := seedStudent(s.store)

	w := s.do(t, http.MethodGet, "/students/"+student.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	got := decodeBody[types.StudentProfile](t, w)
	assert.Equal(t, student.ID, got.ID)
	assert.Equal(t, []string{"lecture"}, got.Strengths["academic_skills"])
}

func TestGetStudent_Errors(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/students/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody[map[string]string](t, w)["error"], "invalid student ID")

	w = s.do(t, http.MethodGet, "/students/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatchStudent(t *testing.T) {
	s := newTestServer(t)
	student := seedStudent(s.store)

	w := s.do(t, http.MethodPatch, "/students/"+student.ID.String(), `{
		"level": "6ème",
		"needs": {"human_assistance": ["AESH mutualisée"]},
		"family_contacts": []
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decodeBody[types.StudentProfile](t, w)
	assert.Equal(t, "6ème", got.Level)
	assert.Equal(t, []string{"AESH mutualisée"}, got.Needs["human_assistance"])
	assert.Empty(t, got.FamilyContacts, "explicit empty list clears contacts")
	assert.Equal(t, []string{"lecture"}, got.Strengths["academic_skills"], "untouched section kept")
}

func TestPatchStudent_NormalizesNamesAndTags(t *testing.T) {
	s := newTestServer(t)
	student := seedStudent(s.store)

	w := s.do(t, http.MethodPatch, "/students/"+student.ID.String(), `{
		"family_contacts": [{"name": "  Marie   Dupont ", "phone": "06"}],
		"strengths": {"interests": ["dessin ", "dessin", " ", "musique"]}
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decodeBody[types.StudentProfile](t, w)
	assert.Equal(t, []types.FamilyContact{{Name: "Marie Dupont", Phone: "06"}}, got.FamilyContacts)
	assert.Equal(t, []string{"dessin", "musique"}, got.Strengths["interests"])
}

func TestPatchStudent_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "unknown sub-category", body: `{"strengths": {"sports": ["football"]}}`, field: "strengths"},
		{name: "contact without name", body: `{"family_contacts": [{"name": " ", "phone": "06"}]}`, field: "family_contacts.0.name"},
		{name: "invalid contact email", body: `{"family_contacts": [{"name": "Marie", "email": "nope"}]}`, field: "family_contacts.0.email"},
		{name: "unknown section", body: `{"first_name": "Lou"}`, field: "body"},
		{name: "duplicate contact name", body: `{"family_contacts": [{"name": "Marie Dupont"}, {"name": "MARIE  dupont"}]}`, field: "family_contacts.1.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			student := seedStudent(s.store)

			w := s.do(t, http.MethodPatch, "/students/"+student.ID.String(), tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody[map[string]string](t, w)["error"], tt.field)
		})
	}
}

func TestPatchStudent_NotFound(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPatch, "/students/"+uuid.NewString(), `{"level": "CM1"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteStudent(t *testing.T) {
	s := newTestServer(t)
	student := seedStudent(s.store)

	w := s.do(t, http.MethodDelete, "/students/"+student.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodDelete, "/students/"+student.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
