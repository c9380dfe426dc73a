package chat

import "errors"

var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrNoAnalysis    = errors.New("no analysis to chat about")
	ErrBackend       = errors.New("chat backend failed")
	// ErrAnalysisChanged means a new analysis or a reset replaced the result
	// while the question was in flight; the exchange was not recorded.
	ErrAnalysisChanged = errors.New("analysis changed while waiting for the answer")
)

// ErrorReply is the assistant message recorded when the backend fails.
const ErrorReply = "Sorry, I encountered an error. Please try again."
