package analyzer

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrEmptyAnswer   = errors.New("empty chat answer")
	ErrEmptyExport   = errors.New("empty export body")
	ErrNoData        = errors.New("analysis response missing data")
)

// APIError is returned when the backend answers with a non-success status or
// an unsuccessful envelope.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("analyzer api: status %d", e.Status)
	}
	return fmt.Sprintf("analyzer api: status %d: %s", e.Status, e.Message)
}

// UserMessage returns the backend-provided message when err carries one and
// fallback otherwise.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
