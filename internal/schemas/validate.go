// Package schemas provides JSON Schema validation for structured data produced by the LLM.
package schemas

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed extracted_profile.schema.json
var extractedProfileSchema string

const extractedProfileSchemaName = "extracted_profile.schema.json"

// The embedded schema is compiled on first use and shared afterwards.
var (
	compileOnce     sync.Once
	compiledProfile *gojsonschema.Schema
	compileErr      error
)

func profileSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledProfile, compileErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(extractedProfileSchema))
	})
	return compiledProfile, compileErr
}

// ExtractedProfileSchema returns the JSON Schema an AI extraction must satisfy.
func ExtractedProfileSchema() string {
	return extractedProfileSchema
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateExtractedProfile validates raw extraction JSON against the embedded schema.
func ValidateExtractedProfile(jsonContent string) error {
	schema, err := profileSchema()
	if err != nil {
		return &SchemaLoadError{Path: extractedProfileSchemaName, Message: "invalid embedded schema", Cause: err}
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return &SchemaLoadError{Path: extractedProfileSchemaName, Message: "document could not be read", Cause: err}
	}
	return resultError(result)
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaContent),
		gojsonschema.NewStringLoader(jsonContent))
	if err != nil {
		return &SchemaLoadError{Path: "(string schema)", Message: "schema validation failed during load", Cause: err}
	}
	return resultError(result)
}

// resultError turns a failed result into a *ValidationError listing each
// offending field. A valid result gives nil.
func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
