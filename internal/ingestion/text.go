package ingestion

import (
	"regexp"
	"strings"
)

var (
	inlineSpace     = regexp.MustCompile(`\s+`)
	extraBlankLines = regexp.MustCompile(`\n\n\n+`)
)

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	// 1. Normalize line endings (CRLF → LF)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	// Form feeds and non-breaking spaces come from PDF/office exports.
	content = strings.ReplaceAll(content, "\f", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	// 2. Clean line by line
	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	// 3. Remove excessive blank lines (max 2 consecutive)
	result := removeExcessiveBlankLines(strings.Join(cleanedLines, "\n"))

	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving structure
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")

	if strings.TrimSpace(line) == "" {
		return ""
	}

	// Markdown headings lose their indentation
	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	leadingSpace := len(line) - len(trimmed)

	// Bullets are normalized to "- " so the extractor sees one list style
	if isBulletLine(trimmed) {
		_, item, _ := strings.Cut(trimmed, " ")
		bullet := "- " + inlineSpace.ReplaceAllString(strings.TrimSpace(item), " ")
		return strings.Repeat(" ", leadingSpace) + bullet
	}

	content := inlineSpace.ReplaceAllString(strings.TrimSpace(line), " ")
	if leadingSpace > 0 {
		return strings.Repeat(" ", leadingSpace) + content
	}
	return content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "• ") || strings.HasPrefix(trimmed, "· ") ||
		strings.HasPrefix(trimmed, "▪ ")
}

// removeExcessiveBlankLines reduces consecutive blank lines to max 2
func removeExcessiveBlankLines(content string) string {
	return extraBlankLines.ReplaceAllString(content, "\n\n")
}
