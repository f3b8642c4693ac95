package server

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/ppi-assistant/internal/db"
	"github.com/jonathan/ppi-assistant/internal/importer"
	"github.com/jonathan/ppi-assistant/internal/ingestion"
	"github.com/jonathan/ppi-assistant/internal/types"
)

// MaxBatchDocuments caps the documents of one batch import.
const MaxBatchDocuments = 10

// maxImportBodyBytes leaves room for JSON escaping around a full-size document.
const maxImportBodyBytes = 3 * ingestion.MaxDocumentBytes

// ImportRequest names one document, either inline or by URL.
type ImportRequest struct {
	DocumentName string `json:"document_name,omitempty" validate:"required_without=URL,max=255"`
	ContentType  string `json:"content_type,omitempty" validate:"max=255"`
	Content      string `json:"content,omitempty" validate:"required_without=URL"`
	URL          string `json:"url,omitempty" validate:"omitempty,url"`
}

// BatchImportRequest is the body of POST /students/{id}/imports/batch
type BatchImportRequest struct {
	Documents []ImportRequest `json:"documents" validate:"required,min=1,dive"`
}

// ImportResponse reports the sections an import wrote, or would write.
type ImportResponse struct {
	Document   string                `json:"document"`
	Patch      map[string]any        `json:"patch"`
	Sections   []string              `json:"sections"`
	Overwrites []types.FieldChange   `json:"overwrites"`
	Student    *types.StudentProfile `json:"student"`
	Applied    bool                  `json:"applied"`
}

func newImportResponse(result *importer.Result) ImportResponse {
	overwrites := result.Overwrites
	if overwrites == nil {
		overwrites = []types.FieldChange{}
	}
	return ImportResponse{
		Document:   result.Document,
		Patch:      result.Patch.Document(),
		Sections:   result.Sections,
		Overwrites: overwrites,
		Student:    result.Student,
		Applied:    result.Applied,
	}
}

// handleImport extracts a document and merges it into the student
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	s.runImport(w, r, false)
}

// handlePreviewImport returns what an import would write without writing it
func (s *Server) handlePreviewImport(w http.ResponseWriter, r *http.Request) {
	s.runImport(w, r, true)
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request, preview bool) {
	id, err := parseStudentID(r)
	if err != nil {
		s.failure(w, err)
		return
	}
	if s.importer == nil {
		s.failure(w, &ErrImportsDisabled{})
		return
	}

	var req ImportRequest
	if err := decodeJSON(w, r, maxImportBodyBytes, &req); err != nil {
		s.failure(w, err)
		return
	}
	doc, err := s.loadDocument(r.Context(), req)
	if err != nil {
		s.failure(w, err)
		return
	}

	var result *importer.Result
	if preview {
		result, err = s.importer.Preview(r.Context(), id, *doc)
	} else {
		result, err = s.importer.Import(r.Context(), id, *doc)
	}
	if err != nil {
		s.logger.Warn("import failed",
			zap.String("student_id", id.String()),
			zap.String("document", doc.Name),
			zap.Bool("preview", preview),
			zap.Error(err),
		)
		s.failure(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, newImportResponse(result))
}

// handleImportBatch imports several documents in order
func (s *Server) handleImportBatch(w http.ResponseWriter, r *http.Request) {
	id, err := parseStudentID(r)
	if err != nil {
		s.failure(w, err)
		return
	}
	if s.importer == nil {
		s.failure(w, &ErrImportsDisabled{})
		return
	}

	var req BatchImportRequest
	if err := decodeJSON(w, r, MaxBatchDocuments*maxImportBodyBytes, &req); err != nil {
		s.failure(w, err)
		return
	}
	if len(req.Documents) > MaxBatchDocuments {
		s.failure(w, &ErrValidation{Field: "documents", Message: "too many documents in one batch"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.failure(w, validationError(err))
		return
	}

	docs := make([]ingestion.Document, 0, len(req.Documents))
	for _, item := range req.Documents {
		doc, err := s.loadDocument(r.Context(), item)
		if err != nil {
			s.failure(w, err)
			return
		}
		docs = append(docs, *doc)
	}

	results, err := s.importer.ImportBatch(r.Context(), id, docs)
	responses := make([]ImportResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, newImportResponse(result))
	}
	if err != nil {
		s.logger.Warn("batch import failed",
			zap.String("student_id", id.String()),
			zap.Int("documents", len(docs)),
			zap.Int("merged", len(results)),
			zap.Error(err),
		)
		s.jsonResponse(w, HTTPStatus(err), map[string]any{
			"error":   err.Error(),
			"results": responses,
		})
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"results": responses})
}

// handleListImports lists the import history of a student, newest first
func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
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

	records, err := s.store.ListImports(r.Context(), id, parseQueryInt(r, "limit", 50, 200))
	if err != nil {
		s.failure(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"imports": records,
		"count":   len(records),
	})
}

// loadDocument validates an import request and turns it into a Document.
func (s *Server) loadDocument(ctx context.Context, req ImportRequest) (*ingestion.Document, error) {
	if err := s.validate.Struct(&req); err != nil {
		return nil, validationError(err)
	}

	if url := strings.TrimSpace(req.URL); url != "" {
		if s.fetchOpts == nil {
			return nil, &ErrValidation{Field: "url", Message: "URL imports are disabled on this server"}
		}
		doc, err := ingestion.FromURL(ctx, url, s.fetchOpts)
		if err != nil {
			return nil, err
		}
		if name := strings.TrimSpace(req.DocumentName); name != "" {
			doc.Name = name
		}
		return doc, nil
	}

	return ingestion.FromBytes(strings.TrimSpace(req.DocumentName), req.ContentType, []byte(req.Content))
}
