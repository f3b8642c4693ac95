package prompts

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		key      string
		wantErr  string
		contains string
	}{
		{name: "extraction", file: "extraction.json", key: "extract-student-profile", contains: "{{.DocumentName}}"},
		{name: "repair", file: "extraction.json", key: "repair-extraction", contains: "{{.Errors}}"},
		{name: "unknown file", file: "nonexistent.json", key: "some-key", wantErr: "failed to read prompt file"},
		{name: "unknown key", file: "extraction.json", key: "nonexistent-key", wantErr: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Get(tt.file, tt.key)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, got, tt.contains)
		})
	}
}

func TestExtractionPrompt_French(t *testing.T) {
	got, err := Get("extraction.json", "extract-student-profile")
	require.NoError(t, err)

	assert.Contains(t, got, "Relève uniquement les informations")
	assert.Contains(t, got, "Clés de sous-catégorie autorisées")
	for _, english := range []string{"Extract ", "Allowed ", " the "} {
		assert.NotContains(t, got, english)
	}
}

func TestRender(t *testing.T) {
	got, err := Render("extraction.json", "repair-extraction", map[string]string{
		"Errors":         "level: invalid type",
		"PreviousAnswer": `{"level": 6}`,
		"Unused":         "ignored",
	})
	require.NoError(t, err)

	assert.Contains(t, got, "level: invalid type")
	assert.Contains(t, got, `{"level": 6}`)
	assert.NotContains(t, got, "{{.")
}

func TestRender_MissingValue(t *testing.T) {
	_, err := Render("extraction.json", "repair-extraction", map[string]string{"Errors": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PreviousAnswer")
}

func TestRender_ValueWithPlaceholderSyntaxIsNotExpanded(t *testing.T) {
	got, err := Render("extraction.json", "repair-extraction", map[string]string{
		"Errors":         "{{.PreviousAnswer}}",
		"PreviousAnswer": "answer",
	})
	require.NoError(t, err)
	assert.Contains(t, got, "{{.PreviousAnswer}}")
}

func TestPlaceholders(t *testing.T) {
	names, err := Placeholders("extraction.json", "extract-student-profile")
	require.NoError(t, err)
	assert.Equal(t, []string{"DocumentName", "SubCategories"}, names)
}

func TestKeys(t *testing.T) {
	keys, err := Keys("extraction.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"extract-student-profile", "repair-extraction"}, keys)
}

func TestLoadIsCached(t *testing.T) {
	first, err := load("extraction.json")
	require.NoError(t, err)
	second, err := load("extraction.json")
	require.NoError(t, err)

	assert.Equal(t, reflect.ValueOf(first).Pointer(), reflect.ValueOf(second).Pointer())
}
