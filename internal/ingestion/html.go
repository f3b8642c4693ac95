package ingestion

import "github.com/jonathan/ppi-assistant/internal/fetch"

// HTMLToText extracts the readable text of an HTML document and cleans it.
func HTMLToText(html string) (string, error) {
	text, err := fetch.ExtractMainText(html, fetch.DefaultTextSelectors())
	if err != nil {
		return "", err
	}
	return CleanText(text), nil
}
