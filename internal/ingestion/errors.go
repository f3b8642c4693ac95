package ingestion

import "fmt"

// UnsupportedFormatError is returned when a document is neither text, Markdown nor HTML
type UnsupportedFormatError struct {
	Name        string
	ContentType string
}

func (e *UnsupportedFormatError) Error() string {
	if e.ContentType == "" {
		return fmt.Sprintf("unsupported document format for %s", e.Name)
	}
	return fmt.Sprintf("unsupported document format for %s: %s", e.Name, e.ContentType)
}

// EmptyDocumentError is returned when a document contains no text after cleaning
type EmptyDocumentError struct {
	Name string
}

func (e *EmptyDocumentError) Error() string {
	return fmt.Sprintf("document %s contains no text", e.Name)
}

// TooLargeError is returned when a document exceeds MaxDocumentBytes
type TooLargeError struct {
	Name  string
	Size  int64
	Limit int64
}

func (e *TooLargeError) Error() string {
	if e.Size < 0 {
		return fmt.Sprintf("document %s exceeds %d bytes", e.Name, e.Limit)
	}
	return fmt.Sprintf("document %s is %d bytes, limit is %d", e.Name, e.Size, e.Limit)
}
