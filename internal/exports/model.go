package exports

import (
	"fmt"
	"strings"
	"time"

	"repo-analyzer-client/internal/analyzer"
)

// Formats.
const (
	FormatText = "txt"
	FormatDOCX = "docx"
	FormatPDF  = "pdf"
)

// Formats lists the supported export formats.
var Formats = []string{FormatText, FormatDOCX, FormatPDF}

const contentTypeText = "text/plain; charset=utf-8"

// Export is an archived export blob owned by a session.
type Export struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	Format      string    `json:"format"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	StorageKey  string    `json:"-"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ParseFormat normalizes a format name. "text" is accepted for txt.
func ParseFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "txt", "text":
		return FormatText, nil
	case "docx", "word":
		return FormatDOCX, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// FailureMessage is the user-facing message for a failed export.
func FailureMessage(format string) string {
	switch format {
	case FormatDOCX:
		return "Failed to export DOCX"
	case FormatPDF:
		return "Failed to export PDF"
	default:
		return "Failed to export text"
	}
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	return "." + format
}

// DefaultFileName is "<owner>-<repo>-analysis.<ext>".
func DefaultFileName(result analyzer.Result, format string) string {
	return result.FileStem() + Extension(format)
}
