package analyses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/sessions"
	"repo-analyzer-client/internal/shared/metrics"
	"repo-analyzer-client/internal/shared/telemetry"
)

// Analyzer is the slice of the backend client the analysis flow needs.
type Analyzer interface {
	AnalyzeRepo(ctx context.Context, repoURL, focus string) (analyzer.Result, error)
}

// Service runs analyses on behalf of a session.
type Service struct {
	Analyzer Analyzer
	Sessions sessions.Repo
	// BusyTimeout is how long a busy flag is honoured before a new submit may
	// reclaim it. It should exceed the backend client timeout.
	BusyTimeout time.Duration
}

const defaultBusyTimeout = 5 * time.Minute

// Analyze validates the input, calls the backend and stores the outcome in the
// session. At most one analysis per session runs at a time. On failure the
// previous result is kept and the user-facing message is stored as LastError.
func (s *Service) Analyze(ctx context.Context, sessionID, repoURL, focus string) (sessions.Session, error) {
	url, err := NormalizeRepoURL(repoURL)
	if err != nil {
		return sessions.Session{}, err
	}
	focus, err = NormalizeFocus(focus)
	if err != nil {
		return sessions.Session{}, err
	}

	busyTimeout := s.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	acquired, err := s.Sessions.TryMarkBusy(ctx, sessionID, busyTimeout)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("mark session busy: %w", err)
	}
	if !acquired {
		metrics.IncAnalysisRejected()
		return sessions.Session{}, ErrBusy
	}
	// The analysis outlives a disconnected browser so the result is still
	// stored; the client's HTTP timeout bounds it.
	ctx = context.WithoutCancel(ctx)
	defer func() {
		if err := s.Sessions.ClearBusy(ctx, sessionID); err != nil {
			telemetry.Error("analysis.clear_busy_failed", map[string]any{
				"session_id": sessionID,
				"error":      err,
			})
		}
	}()

	metrics.IncAnalysisStarted()
	start := time.Now()
	result, callErr := s.Analyzer.AnalyzeRepo(ctx, url, focus)
	durationMs := float64(time.Since(start).Milliseconds())
	metrics.ObserveAnalysisDurationMs(durationMs)

	sess, err := sessions.Load(ctx, s.Sessions, sessionID)
	if err != nil {
		return sessions.Session{}, fmt.Errorf("load session: %w", err)
	}
	if callErr != nil {
		metrics.IncAnalysisFailed()
		sess.LastError = backendMessage(callErr)
		telemetry.Warn("analysis.failed", map[string]any{
			"session_id":  sessionID,
			"repo_url":    url,
			"focus":       focus,
			"duration_ms": durationMs,
			"rejected":    analyzer.IsAPIError(callErr),
			"error":       callErr,
		})
		if err := s.Sessions.Save(ctx, sess); err != nil {
			return sess, fmt.Errorf("save session: %w", err)
		}
		return sess, fmt.Errorf("%w: %w", ErrAnalysisFailed, callErr)
	}

	metrics.IncAnalysisCompleted()
	fillRepoIdentity(&result, url)
	sess.RepoURL = url
	sess.Focus = focus
	sess.AnalysisID = uuid.NewString()
	sess.Result = &result
	sess.ActiveTab = sessions.TabOverview
	sess.Messages = []analyzer.ChatMessage{}
	sess.LastError = ""
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return sess, fmt.Errorf("save session: %w", err)
	}
	telemetry.Info("analysis.completed", map[string]any{
		"session_id":  sessionID,
		"repo":        result.FullName(),
		"focus":       focus,
		"duration_ms": durationMs,
	})
	return sess, nil
}

// Current returns the session's view state, creating an empty one if needed.
func (s *Service) Current(ctx context.Context, sessionID string) (sessions.Session, error) {
	return sessions.Load(ctx, s.Sessions, sessionID)
}

// SelectTab persists the active result tab and returns the normalized name.
func (s *Service) SelectTab(ctx context.Context, sessionID, tab string) (sessions.Session, error) {
	sess, err := sessions.Load(ctx, s.Sessions, sessionID)
	if err != nil {
		return sessions.Session{}, err
	}
	tab = sessions.NormalizeTab(tab)
	if sess.ActiveTab == tab {
		return sess, nil
	}
	sess.ActiveTab = tab
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return sess, err
	}
	return sess, nil
}

// Reset clears the session for a new analysis.
func (s *Service) Reset(ctx context.Context, sessionID string) error {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if errors.Is(err, sessions.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	sess.Reset()
	return s.Sessions.Save(ctx, sess)
}

func backendMessage(err error) string {
	return analyzer.UserMessage(err, MsgAnalysisFailed)
}

// fillRepoIdentity takes owner and name from the submitted URL when the
// backend leaves them out, so headings and file names stay meaningful.
func fillRepoIdentity(result *analyzer.Result, repoURL string) {
	if result.RepoOwner != "" && result.RepoName != "" {
		return
	}
	owner, name, err := ParseRepo(repoURL)
	if err != nil {
		return
	}
	if result.RepoOwner == "" {
		result.RepoOwner = owner
	}
	if result.RepoName == "" {
		result.RepoName = name
	}
}
