package analyses

import "errors"

var (
	ErrEmptyRepoURL   = errors.New("repository url is required")
	ErrInvalidRepoURL = errors.New("invalid github repository url")
	ErrInvalidFocus   = errors.New("invalid analysis focus")
	ErrBusy           = errors.New("analysis already running")
	ErrAnalysisFailed = errors.New("analysis failed")
)

// User-facing messages.
const (
	MsgInvalidRepoURL = "Please enter a valid GitHub repository URL (https://github.com/owner/repo)"
	MsgInvalidFocus   = "Focus must be one of all, resume, interview or viva"
	MsgBusy           = "An analysis is already running"
	MsgAnalysisFailed = "Analysis failed"
)

// UserMessage maps validation and flow errors to the text shown to users.
// Backend failures surface the backend's own message when it sent one.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyRepoURL), errors.Is(err, ErrInvalidRepoURL):
		return MsgInvalidRepoURL
	case errors.Is(err, ErrInvalidFocus):
		return MsgInvalidFocus
	case errors.Is(err, ErrBusy):
		return MsgBusy
	default:
		return backendMessage(err)
	}
}
