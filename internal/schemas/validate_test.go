package schemas

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractedProfileSchema_ValidJSON(t *testing.T) {
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(ExtractedProfileSchema()), &v))
	assert.Equal(t, "ExtractedProfile", v["title"])
}

func TestValidateExtractedProfile(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
		field   string
	}{
		{
			name: "full extraction",
			json: `{
				"birth_date": "2014-03-02",
				"level": "CM2",
				"notification_title": "Notification MDPH",
				"family_contacts": [{"name": "Marie Dupont", "phone": "0600000000", "email": null}],
				"strengths": {"academic_skills": ["lecture"], "interests": []},
				"needs": {"human_assistance": ["AESH mutualisée"]}
			}`,
		},
		{
			name: "empty object",
			json: `{}`,
		},
		{
			name: "null groups mean not found",
			json: `{"strengths": null, "family_contacts": null, "level": null}`,
		},
		{
			name: "unknown top-level keys are tolerated",
			json: `{"first_name": "Lina"}`,
		},
		{
			name:    "unknown sub-category",
			json:    `{"strengths": {"sports": ["football"]}}`,
			wantErr: true,
			field:   "strengths",
		},
		{
			name:    "tag is not a string",
			json:    `{"needs": {"human_assistance": [12]}}`,
			wantErr: true,
			field:   "needs.human_assistance.0",
		},
		{
			name:    "contact without name",
			json:    `{"family_contacts": [{"phone": "0600000000"}]}`,
			wantErr: true,
			field:   "family_contacts.0",
		},
		{
			name:    "scalar of wrong type",
			json:    `{"level": 6}`,
			wantErr: true,
			field:   "level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateExtractedProfile(tt.json)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "expected ValidationError, got %v", err)
			require.NotEmpty(t, validationErr.Errors)
			assert.Equal(t, tt.field, validationErr.Errors[0].Field)
		})
	}
}

func TestValidateJSONString_Valid(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name": "Marie"}`))
}

func TestValidateJSONString_Invalid(t *testing.T) {
	schema := `{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}`

	err := ValidateJSONString(schema, `{}`)
	require.Error(t, err)

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "(root)", validationErr.Errors[0].Field)
}

func TestValidateJSONString_MalformedSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)
	require.Error(t, err)

	var loadErr *SchemaLoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "level", Message: "Invalid type. Expected: string, given: integer"},
			{Field: "strengths", Message: "Additional property sports is not allowed"},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "validation failed:")
	assert.Contains(t, msg, "1. level: Invalid type")
	assert.Contains(t, msg, "2. strengths: Additional property sports")
}

func TestValidateExtractedProfile_MalformedDocument(t *testing.T) {
	err := ValidateExtractedProfile(`{"level": "CM2"`)

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr), "expected SchemaLoadError, got %v", err)
	assert.Equal(t, "extracted_profile.schema.json", loadErr.Path)
}

func TestProfileSchema_CompiledOnce(t *testing.T) {
	first, err := profileSchema()
	require.NoError(t, err)
	second, err := profileSchema()
	require.NoError(t, err)
	assert.Same(t, first, second)
}
