package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/ppi-assistant/internal/db"
	"github.com/jonathan/ppi-assistant/internal/reconcile"
	"github.com/jonathan/ppi-assistant/internal/types"
)

// maxJSONBodyBytes caps request bodies that carry no document.
const maxJSONBodyBytes = 1 << 20

// CreateStudentResponse is returned by POST /students
type CreateStudentResponse struct {
	ID string `json:"id"`
}

// parseQueryInt parses an integer query parameter with default and max values
func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

// parseStudentID reads the {id} path value.
func parseStudentID(r *http.Request) (uuid.UUID, error) {
	idStr := r.PathValue("id")
	if idStr == "" {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "student ID is required"}
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "invalid student ID format"}
	}
	return id, nil
}

// decodeJSON decodes a size-limited body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &ErrValidation{Field: "body", Message: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)}
		}
		return &ErrValidation{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	return nil
}

// handleCreateStudent creates a student with empty sections
func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var input db.StudentCreateInput
	if err := decodeJSON(w, r, maxJSONBodyBytes, &input); err != nil {
		s.failure(w, err)
		return
	}

	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.ClassName = strings.TrimSpace(input.ClassName)

	if err := s.validate.Struct(&input); err != nil {
		s.failure(w, validationError(err))
		return
	}

	student, err := s.store.CreateStudent(r.Context(), &input)
	if err != nil {
		s.failure(w, err)
		return
	}

	s.logger.Info("student created", zap.String("student_id", student.ID.String()))
	s.jsonResponse(w, http.StatusCreated, CreateStudentResponse{ID: student.ID.String()})
}

// handleListStudents lists students, optionally filtered by class
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	filters := db.StudentFilters{
		ClassName: strings.TrimSpace(r.URL.Query().Get("class")),
		Limit:     parseQueryInt(r, "limit", db.DefaultListLimit, 500),
	}

	students, err := s.store.ListStudents(r.Context(), filters)
	if err != nil {
		s.failure(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"students": students,
		"count":    len(students),
	})
}

// handleGetStudent retrieves a student by ID
func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseStudentID(r)
	if err != nil {
		s.failure(w, err)
		return
	}

	student, err := s.store.GetStudent(r.Context(), id)
	if err != nil {
		s.failure(w, err)
		return
	}
	if student == nil {
		s.failure(w, &db.NotFoundError{ID: id})
		return
	}

	s.jsonResponse(w, http.StatusOK, student)
}

// handlePatchStudent overwrites the sections present in the body. It serves
// the profile form's auto-save; an explicit empty section clears it.
func (s *Server) handlePatchStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseStudentID(r)
	if err != nil {
		s.failure(w, err)
		return
	}

	var patch types.ProfilePatch
	if err := decodeJSON(w, r, maxJSONBodyBytes, &patch); err != nil {
		s.failure(w, err)
		return
	}
	if err := s.validatePatch(&patch); err != nil {
		s.failure(w, err)
		return
	}

	student, err := s.store.ApplyPatch(r.Context(), id, patch)
	if err != nil {
		s.failure(w, err)
		return
	}

	s.logger.Info("student patched",
		zap.String("student_id", id.String()),
		zap.Strings("sections", patch.Sections()),
	)
	s.jsonResponse(w, http.StatusOK, student)
}

// handleDeleteStudent deletes a student and its import history
func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := parseStudentID(r)
	if err != nil {
		s.failure(w, err)
		return
	}

	if err := s.store.DeleteStudent(r.Context(), id); err != nil {
		s.failure(w, err)
		return
	}

	s.logger.Info("student deleted", zap.String("student_id", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

// validatePatch checks contact fields and category keys of a manual edit,
// and stores names and tags in the same form an import would.
func (s *Server) validatePatch(patch *types.ProfilePatch) error {
	seen := make(map[string]int, len(patch.FamilyContacts))
	for i := range patch.FamilyContacts {
		c := &patch.FamilyContacts[i]
		c.Name = reconcile.CleanName(c.Name)
		field := fmt.Sprintf("family_contacts.%d", i)
		if err := s.validate.Struct(c); err != nil {
			var ve *ErrValidation
			if errors.As(validationError(err), &ve) {
				ve.Field = field + "." + ve.Field
				return ve
			}
			return &ErrValidation{Field: field, Message: err.Error()}
		}
		key := reconcile.NameKey(c.Name)
		if first, ok := seen[key]; ok {
			return &ErrValidation{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicates the name of family_contacts.%d", first),
			}
		}
		seen[key] = i
	}

	for _, c := range types.Categories {
		group := patch.Group(c)
		for key, tags := range group {
			if !types.IsSubCategory(c, key) {
				return &ErrValidation{
					Field:   string(c),
					Message: fmt.Sprintf("unknown sub-category %q", key),
				}
			}
			group[key] = reconcile.UnionTags(nil, tags)
		}
	}
	return nil
}

// validationError turns validator output into an ErrValidation naming the
// first failing field.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ErrValidation{
			Field:   fe.Field(),
			Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
		}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}
