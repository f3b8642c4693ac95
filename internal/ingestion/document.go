// Package ingestion turns uploaded documents (GevaSco forms, MDPH notifications,
// follow-up meeting notes) into cleaned plain text ready for extraction.
package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/jonathan/ppi-assistant/internal/fetch"
)

// MaxDocumentBytes is the largest document accepted for extraction.
const MaxDocumentBytes int64 = 2 << 20

// Supported content types.
const (
	ContentTypeText     = "text/plain"
	ContentTypeMarkdown = "text/markdown"
	ContentTypeHTML     = "text/html"
)

// Document is a cleaned document ready to be sent to the extractor.
type Document struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Text        string `json:"text"`
	Hash        string `json:"hash"` // SHA256 hex digest of Text
}

// FromBytes decodes and cleans raw document bytes. The content type wins over
// the file extension of name when both are known.
func FromBytes(name, contentType string, data []byte) (*Document, error) {
	if int64(len(data)) > MaxDocumentBytes {
		return nil, &TooLargeError{Name: name, Size: int64(len(data)), Limit: MaxDocumentBytes}
	}

	mediaType, charset := parseContentType(contentType)
	format := detectFormat(name, mediaType)
	if format == "" {
		return nil, &UnsupportedFormatError{Name: name, ContentType: contentType}
	}

	raw := decode(data, charset)

	var text string
	switch format {
	case ContentTypeHTML:
		var err error
		text, err = HTMLToText(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
	default:
		text = CleanText(raw)
	}

	if text == "" {
		return nil, &EmptyDocumentError{Name: name}
	}

	return &Document{
		Name:        name,
		ContentType: format,
		Text:        text,
		Hash:        computeHash(text),
	}, nil
}

// FromFile reads and cleans a local document.
func FromFile(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if info.Size() > MaxDocumentBytes {
		return nil, &TooLargeError{Name: filepath.Base(path), Size: info.Size(), Limit: MaxDocumentBytes}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return FromBytes(filepath.Base(path), "", content)
}

// FromURL downloads and cleans a document served over HTTP.
func FromURL(ctx context.Context, urlStr string, opts *fetch.Options) (*Document, error) {
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	limited := *opts
	limited.MaxBytes = MaxDocumentBytes

	result, err := fetch.URL(ctx, urlStr, &limited)
	if err != nil {
		return nil, err
	}
	if result.Truncated {
		return nil, &TooLargeError{Name: urlStr, Size: -1, Limit: MaxDocumentBytes}
	}

	return FromBytes(urlStr, result.ContentType, result.Body)
}

func parseContentType(contentType string) (mediaType, charset string) {
	if strings.TrimSpace(contentType) == "" {
		return "", ""
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType)), ""
	}
	return mediaType, strings.ToLower(params["charset"])
}

// detectFormat returns the canonical content type, or "" when unsupported.
func detectFormat(name, mediaType string) string {
	switch mediaType {
	case "text/plain":
		return ContentTypeText
	case "text/markdown", "text/x-markdown":
		return ContentTypeMarkdown
	case "text/html", "application/xhtml+xml":
		return ContentTypeHTML
	case "", "application/octet-stream":
		// fall through to the extension
	default:
		return ""
	}

	// Strip any query string left over from a URL name.
	base := name
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}

	switch strings.ToLower(filepath.Ext(base)) {
	case ".txt", ".text":
		return ContentTypeText
	case ".md", ".markdown":
		return ContentTypeMarkdown
	case ".html", ".htm", ".xhtml":
		return ContentTypeHTML
	default:
		return ""
	}
}

// decode converts data to UTF-8. Exports from older office tools are often
// Windows-1252 without a declared charset.
func decode(data []byte, charset string) string {
	switch charset {
	case "iso-8859-1", "latin1", "windows-1252", "cp1252":
		if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
			return string(decoded)
		}
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	if utf8.ValidString(text) {
		return text
	}
	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		return string(decoded)
	}
	return strings.ToValidUTF8(text, "\uFFFD")
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
