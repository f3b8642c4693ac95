package server

import (
	"net/http"

	"github.com/jonathan/ppi-assistant/internal/reconcile"
	"github.com/jonathan/ppi-assistant/internal/types"
)

// ReconcileRequest is the body of POST /reconcile
type ReconcileRequest struct {
	Current   types.StudentProfile   `json:"current"`
	Extracted types.ExtractedProfile `json:"extracted"`
	// Policy overrides the server's administrative field policy.
	Policy string `json:"policy,omitempty"`
}

// ReconcileResponse is the patch computed for a ReconcileRequest
type ReconcileResponse struct {
	Patch      map[string]any      `json:"patch"`
	Sections   []string            `json:"sections"`
	Overwrites []types.FieldChange `json:"overwrites"`
}

// handleReconcile merges an extraction into a profile supplied by the
// caller. Nothing is read or stored.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := decodeJSON(w, r, maxJSONBodyBytes, &req); err != nil {
		s.failure(w, err)
		return
	}

	policy := s.policy
	if req.Policy != "" {
		parsed, err := reconcile.ParseAdminPolicy(req.Policy)
		if err != nil {
			s.failure(w, &ErrValidation{Field: "policy", Message: err.Error()})
			return
		}
		policy = parsed
	}

	patch := reconcile.Engine{Policy: policy}.Reconcile(req.Current, req.Extracted)

	sections := patch.Sections()
	if sections == nil {
		sections = []string{}
	}
	overwrites := patch.Overwrites
	if overwrites == nil {
		overwrites = []types.FieldChange{}
	}

	s.jsonResponse(w, http.StatusOK, ReconcileResponse{
		Patch:      patch.Document(),
		Sections:   sections,
		Overwrites: overwrites,
	})
}
