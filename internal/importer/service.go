// Package importer runs document imports: extract a profile from a document,
// reconcile it with the stored student, and write the resulting patch.
package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/ppi-assistant/internal/db"
	"github.com/jonathan/ppi-assistant/internal/ingestion"
	"github.com/jonathan/ppi-assistant/internal/reconcile"
	"github.com/jonathan/ppi-assistant/internal/types"
)

// Defaults for a Service.
const (
	DefaultMaxSaveAttempts = 3
	DefaultConcurrency     = 4
)

// StudentStore is the part of the store an import needs.
type StudentStore interface {
	GetStudent(ctx context.Context, id uuid.UUID) (*types.StudentProfile, error)
	ApplyPatch(ctx context.Context, id uuid.UUID, patch types.ProfilePatch) (*types.StudentProfile, error)
	RecordImport(ctx context.Context, record *db.ImportRecord) error
}

// ProfileExtractor extracts a candidate profile from a document.
type ProfileExtractor interface {
	Extract(ctx context.Context, doc ingestion.Document) (*types.ExtractedProfile, error)
}

// Result describes one document import.
type Result struct {
	Document   string              `json:"document"`
	Patch      types.ProfilePatch  `json:"-"`
	Sections   []string            `json:"sections"`
	Overwrites []types.FieldChange `json:"overwrites,omitempty"`
	// Student is the stored profile after the write, or the proposed
	// profile for a preview.
	Student *types.StudentProfile `json:"student"`
	Applied bool                  `json:"applied"`
}

// Service orchestrates imports. Collaborators are injected; it holds no
// global state and is safe for concurrent use.
type Service struct {
	store           StudentStore
	extractor       ProfileExtractor
	engine          reconcile.Engine
	logger          *zap.Logger
	maxSaveAttempts int
	concurrency     int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPolicy sets the administrative field policy.
func WithPolicy(policy reconcile.AdminPolicy) Option {
	return func(s *Service) {
		s.engine.Policy = policy
	}
}

// WithMaxSaveAttempts sets how many read-reconcile-write rounds an import may take.
func WithMaxSaveAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxSaveAttempts = n
		}
	}
}

// WithConcurrency limits concurrent extractions in ImportBatch.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates an import service.
func NewService(store StudentStore, extractor ProfileExtractor, opts ...Option) *Service {
	s := &Service{
		store:           store,
		extractor:       extractor,
		logger:          zap.NewNop(),
		maxSaveAttempts: DefaultMaxSaveAttempts,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview extracts doc and returns the patch an import would write, along
// with the resulting profile. Nothing is stored.
func (s *Service) Preview(ctx context.Context, studentID uuid.UUID, doc ingestion.Document) (*Result, error) {
	current, err := s.fetch(ctx, studentID)
	if err != nil {
		return nil, err
	}

	extracted, err := s.extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	patch := s.engine.Reconcile(*current, *extracted)
	if !reconcile.Changes(*current, patch) {
		return newResult(doc, types.ProfilePatch{}, current, false), nil
	}
	proposed := reconcile.Apply(*current, patch)
	return newResult(doc, patch, &proposed, false), nil
}

// Import extracts doc once, then merges it into the stored student. If the
// write fails the student is read again and the patch recomputed, up to the
// configured number of attempts.
func (s *Service) Import(ctx context.Context, studentID uuid.UUID, doc ingestion.Document) (*Result, error) {
	if _, err := s.fetch(ctx, studentID); err != nil {
		return nil, err
	}

	extracted, err := s.extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	return s.merge(ctx, studentID, doc, extracted)
}

// ImportBatch extracts every document concurrently, then merges them one by
// one in input order, so the outcome does not depend on which extraction
// finished first. If any extraction fails nothing is written. A save
// failure stops the batch; the results of documents already merged are
// returned with the error.
func (s *Service) ImportBatch(ctx context.Context, studentID uuid.UUID, docs []ingestion.Document) ([]*Result, error) {
	if _, err := s.fetch(ctx, studentID); err != nil {
		return nil, err
	}

	extracted := make([]*types.ExtractedProfile, len(docs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			profile, err := s.extract(gCtx, doc)
			if err != nil {
				return err
			}
			extracted[i] = profile
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]*Result, 0, len(docs))
	for i, doc := range docs {
		result, err := s.merge(ctx, studentID, doc, extracted[i])
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *Service) fetch(ctx context.Context, studentID uuid.UUID) (*types.StudentProfile, error) {
	current, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student %s: %w", studentID, err)
	}
	if current == nil {
		return nil, &NotFoundError{StudentID: studentID}
	}
	return current, nil
}

func (s *Service) extract(ctx context.Context, doc ingestion.Document) (*types.ExtractedProfile, error) {
	if s.extractor == nil {
		return nil, &ExtractionError{Document: doc.Name, Cause: errors.New("no extractor configured")}
	}

	extracted, err := s.extractor.Extract(ctx, doc)
	if err != nil {
		s.logger.Warn("extraction failed", zap.String("document", doc.Name), zap.Error(err))
		return nil, &ExtractionError{Document: doc.Name, Cause: err}
	}
	if extracted == nil {
		extracted = &types.ExtractedProfile{}
	}
	return extracted, nil
}

// merge runs read-reconcile-write rounds until a write succeeds.
func (s *Service) merge(ctx context.Context, studentID uuid.UUID, doc ingestion.Document, extracted *types.ExtractedProfile) (*Result, error) {
	logger := s.logger.With(zap.String("student_id", studentID.String()), zap.String("document", doc.Name))

	var lastErr error
	attempts := 0
	for attempts < s.maxSaveAttempts {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		attempts++

		current, err := s.fetch(ctx, studentID)
		if err != nil {
			var notFound *NotFoundError
			if errors.As(err, &notFound) {
				return nil, err
			}
			lastErr = err
			logger.Warn("failed to read student", zap.Int("attempt", attempts), zap.Error(err))
			continue
		}

		patch := s.engine.Reconcile(*current, *extracted)
		if !reconcile.Changes(*current, patch) {
			logger.Info("import brought nothing new")
			return newResult(doc, types.ProfilePatch{}, current, false), nil
		}

		updated, err := s.store.ApplyPatch(ctx, studentID, patch)
		if err != nil {
			var notFound *db.NotFoundError
			if errors.As(err, &notFound) {
				return nil, &NotFoundError{StudentID: studentID}
			}
			lastErr = err
			logger.Warn("failed to save student", zap.Int("attempt", attempts), zap.Error(err))
			continue
		}

		result := newResult(doc, patch, updated, true)
		s.record(ctx, logger, studentID, doc, result)

		logger.Info("import applied",
			zap.Strings("sections", result.Sections),
			zap.Int("overwrites", len(result.Overwrites)))
		return result, nil
	}

	return nil, &SaveError{StudentID: studentID, Attempts: attempts, Cause: lastErr}
}

// record stores the import trace. A failure is logged, not returned: the
// profile itself is already saved.
func (s *Service) record(ctx context.Context, logger *zap.Logger, studentID uuid.UUID, doc ingestion.Document, result *Result) {
	err := s.store.RecordImport(ctx, &db.ImportRecord{
		StudentID:    studentID,
		DocumentName: doc.Name,
		DocumentHash: doc.Hash,
		Sections:     result.Sections,
		Overwrites:   result.Overwrites,
	})
	if err != nil {
		logger.Warn("failed to record import", zap.Error(err))
	}
}

func newResult(doc ingestion.Document, patch types.ProfilePatch, student *types.StudentProfile, applied bool) *Result {
	sections := patch.Sections()
	if sections == nil {
		sections = []string{}
	}
	return &Result{
		Document:   doc.Name,
		Patch:      patch,
		Sections:   sections,
		Overwrites: patch.Overwrites,
		Student:    student,
		Applied:    applied,
	}
}
