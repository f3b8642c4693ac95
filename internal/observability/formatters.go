// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/ppi-assistant/internal/importer"
	"github.com/jonathan/ppi-assistant/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	for _, line := range lines {
		// Truncate long lines
		runes := []rune(line)
		if len(runes) > boxWidth-4 {
			line = string(runes[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintExtractedProfile outputs a human-readable summary of one extraction.
func (p *Printer) PrintExtractedProfile(profile *types.ExtractedProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	writeAdministrative(&sb, profile.AdministrativeFields)
	writeContacts(&sb, profile.FamilyContacts)
	for _, c := range types.Categories {
		writeGroup(&sb, c, profile.Group(c))
	}

	content := sb.String()
	if content == "" {
		content = "No information found"
	}
	p.printBox("EXTRACTED PROFILE", content)
}

// PrintPatch outputs the sections a patch overwrites and the
// administrative values it replaces.
func (p *Printer) PrintPatch(title string, patch *types.ProfilePatch) {
	if patch == nil {
		return
	}
	if title == "" {
		title = "PROFILE PATCH"
	}
	p.printBox(title, patchSummary(patch))
}

// PrintImportResult outputs the outcome of one document import.
func (p *Printer) PrintImportResult(result *importer.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Document: %s\n", result.Document))
	if result.Student != nil {
		sb.WriteString(fmt.Sprintf("Student:  %s %s\n", result.Student.FirstName, result.Student.LastName))
	}
	status := "preview"
	if result.Applied {
		status = "applied"
	} else if result.Patch.IsEmpty() {
		status = "nothing new"
	}
	sb.WriteString(fmt.Sprintf("Status:   %s\n", status))
	sb.WriteString("\n")
	sb.WriteString(patchSummary(&result.Patch))

	p.printBox("IMPORT RESULT", sb.String())
}

func patchSummary(patch *types.ProfilePatch) string {
	if patch.IsEmpty() {
		return "No changes"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Sections: %s\n", strings.Join(patch.Sections(), ", ")))

	if len(patch.Overwrites) > 0 {
		sb.WriteString("\nOverwrites:\n")
		for _, change := range patch.Overwrites {
			sb.WriteString(fmt.Sprintf("  ! %s: %q -> %q\n", change.Field, change.Previous, change.Proposed))
		}
	}

	if patch.FamilyContacts != nil {
		sb.WriteString(fmt.Sprintf("\nFamily contacts: %d\n", len(patch.FamilyContacts)))
	}
	for _, c := range types.Categories {
		group := patch.Group(c)
		if group == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s:\n", categoryTitle(c)))
		for _, key := range group.Keys() {
			sb.WriteString(fmt.Sprintf("  %s: %d tags\n", key, len(group[key])))
		}
	}
	return sb.String()
}

func writeAdministrative(sb *strings.Builder, fields types.AdministrativeFields) {
	rows := []struct{ label, value string }{
		{"Birth date", fields.BirthDate},
		{"Level", fields.Level},
		{"Notification", fields.NotificationTitle},
		{"Expires", fields.NotificationExpiration},
	}
	wrote := false
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("%-13s %s\n", row.label+":", row.value))
		wrote = true
	}
	if wrote {
		sb.WriteString("\n")
	}
}

func writeContacts(sb *strings.Builder, contacts []types.FamilyContact) {
	if len(contacts) == 0 {
		return
	}
	sb.WriteString("Family contacts:\n")
	count := min(len(contacts), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s", contacts[i].Name))
		if contacts[i].Phone != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", contacts[i].Phone))
		}
		sb.WriteString("\n")
	}
	if len(contacts) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(contacts)-maxItemsToShow))
	}
	sb.WriteString("\n")
}

func writeGroup(sb *strings.Builder, c types.Category, group types.CategoryGroup) {
	if len(group) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("%s:\n", categoryTitle(c)))
	for _, key := range group.Keys() {
		tags := group[key]
		shown := tags[:min(len(tags), maxItemsToShow)]
		line := strings.Join(shown, ", ")
		if len(tags) > maxItemsToShow {
			line += fmt.Sprintf(" (+%d)", len(tags)-maxItemsToShow)
		}
		sb.WriteString(fmt.Sprintf("  %s: %s\n", key, line))
	}
	sb.WriteString("\n")
}

func categoryTitle(c types.Category) string {
	switch c {
	case types.CategoryStrengths:
		return "Strengths"
	case types.CategoryDifficulties:
		return "Difficulties"
	case types.CategoryNeeds:
		return "Needs"
	case types.CategoryGlobalProfile:
		return "Global profile"
	default:
		return string(c)
	}
}
