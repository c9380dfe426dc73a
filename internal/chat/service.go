package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/sessions"
	"repo-analyzer-client/internal/shared/metrics"
	"repo-analyzer-client/internal/shared/telemetry"
)

// Asker forwards a question with the analysis as context.
type Asker interface {
	Chat(ctx context.Context, question string, result analyzer.Result) (string, error)
}

// Service keeps a per-session transcript of questions about the current analysis.
type Service struct {
	Backend  Asker
	Sessions sessions.Repo
	Now      func() time.Time
}

// Exchange is one question and the reply recorded for it.
type Exchange struct {
	Question analyzer.ChatMessage   `json:"question"`
	Answer   analyzer.ChatMessage   `json:"answer"`
	Messages []analyzer.ChatMessage `json:"messages"`
}

// Ask sends question to the backend with the session's result as context and
// records both sides of the exchange. When the backend fails the transcript
// gets ErrorReply and the returned error wraps ErrBackend.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (Exchange, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Exchange{}, ErrEmptyQuestion
	}
	sess, err := sessions.Load(ctx, s.Sessions, sessionID)
	if err != nil {
		return Exchange{}, err
	}
	if !sess.HasResult() {
		return Exchange{}, ErrNoAnalysis
	}

	analysisID := sess.AnalysisID
	userMsg := s.message(analyzer.RoleUser, question)
	metrics.IncChatQuestion()
	answer, callErr := s.Backend.Chat(ctx, question, *sess.Result)
	if callErr != nil {
		metrics.IncChatFailed()
		telemetry.Warn("chat.failed", map[string]any{
			"session_id": sessionID,
			"error":      callErr,
		})
		answer = ErrorReply
	}
	reply := s.message(analyzer.RoleAssistant, answer)

	// Reload so a concurrent tab switch is not overwritten. The answer is
	// dropped when the result it was asked about is gone.
	sess, err = sessions.Load(ctx, s.Sessions, sessionID)
	if err != nil {
		return Exchange{}, err
	}
	if !sess.HasResult() {
		return Exchange{}, ErrNoAnalysis
	}
	if sess.AnalysisID != analysisID {
		telemetry.Info("chat.dropped_stale_answer", map[string]any{"session_id": sessionID})
		return Exchange{}, ErrAnalysisChanged
	}
	sess.AppendMessage(userMsg)
	sess.AppendMessage(reply)
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return Exchange{}, fmt.Errorf("save transcript: %w", err)
	}

	ex := Exchange{Question: userMsg, Answer: reply, Messages: sess.Messages}
	if callErr != nil {
		return ex, fmt.Errorf("%w: %w", ErrBackend, callErr)
	}
	return ex, nil
}

// Transcript returns the session's messages in the order they were added.
func (s *Service) Transcript(ctx context.Context, sessionID string) ([]analyzer.ChatMessage, error) {
	sess, err := sessions.Load(ctx, s.Sessions, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Messages, nil
}

func (s *Service) message(role, content string) analyzer.ChatMessage {
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}
	return analyzer.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
}
