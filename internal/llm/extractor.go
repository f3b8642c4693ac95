package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema describes a JSON object the model should return for a
// piece of text.
type ExtractionSchema struct {
	Name        string // e.g. "ExtractedProfile"
	Description string // task description placed before the structure
	Fields      []SchemaField
	// Rules are appended to the default output rules.
	Rules []string
}

// SchemaField is one key of the expected object.
type SchemaField struct {
	Name        string
	Type        string // shape hint shown to the model; defaults to "string"
	Description string
	Required    bool
}

// defaultRules apply to every extraction.
var defaultRules = []string{
	"Extract only what the text states; do not invent or summarize.",
	"Omit any key the text gives no information about; never output empty strings.",
	"Return ONLY the JSON object, no markdown, no explanation, no code blocks.",
}

// BuildExtractionPrompt lays out the task description, the expected object
// with one key per line, the output rules, then the input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(schema.Description))
	sb.WriteString("\n\n")

	if schema.Name != "" {
		fmt.Fprintf(&sb, "Return ONLY valid JSON for one %s object with this structure:\n{\n", schema.Name)
	} else {
		sb.WriteString("Return ONLY valid JSON with this structure:\n{\n")
	}
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		fmt.Fprintf(&sb, "  %q: %s", field.Name, typeHint)
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}

		var notes []string
		if field.Required {
			notes = append(notes, "required")
		}
		if field.Description != "" {
			notes = append(notes, field.Description)
		}
		if len(notes) > 0 {
			sb.WriteString(" // ")
			sb.WriteString(strings.Join(notes, "; "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	sb.WriteString("Rules:\n")
	for _, rule := range append(append([]string{}, defaultRules...), schema.Rules...) {
		sb.WriteString("- ")
		sb.WriteString(rule)
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}
