// Package extraction turns a cleaned document into an ExtractedProfile using an LLM.
package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/ppi-assistant/internal/ingestion"
	"github.com/jonathan/ppi-assistant/internal/llm"
	"github.com/jonathan/ppi-assistant/internal/prompts"
	"github.com/jonathan/ppi-assistant/internal/schemas"
	"github.com/jonathan/ppi-assistant/internal/types"
)

const promptFile = "extraction.json"

// DefaultRepairAttempts is how many times a response failing validation is sent back for correction.
const DefaultRepairAttempts = 1

// Extractor calls an LLM to extract a student profile from a document.
type Extractor struct {
	client         llm.Client
	tier           llm.ModelTier
	repairAttempts int
	logger         *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTier selects the model tier used for extraction.
func WithTier(tier llm.ModelTier) Option {
	return func(e *Extractor) {
		e.tier = tier
	}
}

// WithRepairAttempts sets how many correction rounds are allowed. Zero disables repair.
func WithRepairAttempts(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.repairAttempts = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an Extractor backed by client.
func NewExtractor(client llm.Client, opts ...Option) *Extractor {
	e := &Extractor{
		client:         client,
		tier:           llm.TierStandard,
		repairAttempts: DefaultRepairAttempts,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract sends the document to the LLM and returns the sanitized result.
// The returned profile only holds values the document states; every other
// field is left absent.
func (e *Extractor) Extract(ctx context.Context, doc ingestion.Document) (*types.ExtractedProfile, error) {
	if e.client == nil {
		return nil, &APICallError{Message: "no LLM client configured"}
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, &ParseError{Message: fmt.Sprintf("document %s is empty", doc.Name)}
	}

	logger := e.logger.With(zap.String("document", doc.Name), zap.String("hash", doc.Hash))

	prompt, err := buildExtractionPrompt(doc)
	if err != nil {
		return nil, err
	}
	response, err := e.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		verr := validateResponse(response)
		if verr == nil {
			break
		}
		if attempt >= e.repairAttempts {
			return nil, &ParseError{
				Message: "response does not match the extraction schema",
				Cause:   verr,
			}
		}

		logger.Warn("extraction response rejected, asking for a correction",
			zap.Int("attempt", attempt+1),
			zap.Error(verr))

		repair, err := buildRepairPrompt(response, verr)
		if err != nil {
			return nil, err
		}
		response, err = e.generate(ctx, repair)
		if err != nil {
			return nil, err
		}
	}

	profile, err := parseJSONResponse(response)
	if err != nil {
		return nil, err
	}

	Sanitize(profile)

	logger.Debug("document extracted",
		zap.Int("family_contacts", len(profile.FamilyContacts)),
		zap.Int("tags", countTags(profile)))

	return profile, nil
}

func (e *Extractor) generate(ctx context.Context, prompt string) (string, error) {
	response, err := e.client.GenerateJSON(ctx, prompt, e.tier)
	if err != nil {
		return "", &APICallError{
			Message: "failed to generate extraction",
			Cause:   err,
		}
	}
	return llm.CleanJSONBlock(response), nil
}

// buildExtractionPrompt constructs the prompt for one document
func buildExtractionPrompt(doc ingestion.Document) (string, error) {
	description, err := prompts.Render(promptFile, "extract-student-profile", map[string]string{
		"DocumentName":  doc.Name,
		"SubCategories": subCategoryListing(),
	})
	if err != nil {
		return "", err
	}
	return llm.BuildExtractionPrompt(profileSchema(description), doc.Text), nil
}

// buildRepairPrompt asks the model to fix a response that failed validation
func buildRepairPrompt(previous string, cause error) (string, error) {
	return prompts.Render(promptFile, "repair-extraction", map[string]string{
		"Errors":         cause.Error(),
		"PreviousAnswer": previous,
	})
}

// profileSchema describes the expected JSON object to the model.
func profileSchema(description string) llm.ExtractionSchema {
	groupType := "{\"<sub_category>\": [\"tag\", ...]}"
	return llm.ExtractionSchema{
		Name:        "ExtractedProfile",
		Description: description,
		Fields: []llm.SchemaField{
			{Name: "birth_date", Type: "string", Description: "date de naissance"},
			{Name: "level", Type: "string", Description: "niveau scolaire (CP, CE1, 6ème...)"},
			{Name: "notification_title", Type: "string", Description: "intitulé de la notification MDPH"},
			{Name: "notification_expiration", Type: "string", Description: "date de fin de validité de la notification"},
			{Name: "family_contacts", Type: "[{\"name\", \"address\", \"phone\", \"email\"}]", Description: "responsables légaux et famille"},
			{Name: string(types.CategoryStrengths), Type: groupType, Description: "points d'appui"},
			{Name: string(types.CategoryDifficulties), Type: groupType, Description: "difficultés observées"},
			{Name: string(types.CategoryNeeds), Type: groupType, Description: "besoins et aménagements"},
			{Name: string(types.CategoryGlobalProfile), Type: groupType, Description: "profil global"},
		},
	}
}

// subCategoryListing renders the allowed sub-category keys, one group per line.
func subCategoryListing() string {
	var sb strings.Builder
	for _, c := range types.Categories {
		sb.WriteString("- ")
		sb.WriteString(string(c))
		sb.WriteString(": ")
		sb.WriteString(strings.Join(types.SubCategories(c), ", "))
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// validateResponse checks the raw response against the extraction schema.
func validateResponse(response string) error {
	if !json.Valid([]byte(response)) {
		return errors.New("response is not valid JSON")
	}
	return schemas.ValidateExtractedProfile(response)
}

// parseJSONResponse parses the JSON response into an ExtractedProfile
func parseJSONResponse(jsonText string) (*types.ExtractedProfile, error) {
	var profile types.ExtractedProfile
	if err := json.Unmarshal([]byte(jsonText), &profile); err != nil {
		return nil, &ParseError{
			Message: "failed to parse JSON response",
			Cause:   err,
		}
	}
	return &profile, nil
}

func countTags(p *types.ExtractedProfile) int {
	n := 0
	for _, c := range types.Categories {
		for _, tags := range p.Group(c) {
			n += len(tags)
		}
	}
	return n
}
