package sessions

import (
	"strings"
	"time"

	"repo-analyzer-client/internal/analyzer"
)

// Result display tabs.
const (
	TabOverview  = "overview"
	TabResume    = "resume"
	TabViva      = "viva"
	TabInterview = "interview"
)

// Tabs lists the result tabs in display order.
var Tabs = []string{TabOverview, TabResume, TabViva, TabInterview}

// MaxMessages bounds a session transcript; the oldest messages are dropped first.
const MaxMessages = 100

// Session is the per-browser view state.
type Session struct {
	ID      string `json:"id"`
	RepoURL string `json:"repoUrl"`
	Focus   string `json:"focus"`
	// AnalysisID changes with every stored result.
	AnalysisID string                 `json:"analysisId,omitempty"`
	Result     *analyzer.Result       `json:"result,omitempty"`
	ActiveTab  string                 `json:"activeTab"`
	Messages   []analyzer.ChatMessage `json:"messages"`
	LastError  string                 `json:"lastError,omitempty"`
	Busy       bool                   `json:"busy"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// New returns an empty session.
func New(id string, now time.Time) Session {
	return Session{
		ID:        id,
		Focus:     analyzer.FocusAll,
		ActiveTab: TabOverview,
		Messages:  []analyzer.ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasResult reports whether an analysis has been displayed in this session.
func (s Session) HasResult() bool {
	return s.Result != nil
}

// Reset clears everything but identity, as when starting a new analysis.
func (s *Session) Reset() {
	s.RepoURL = ""
	s.Focus = analyzer.FocusAll
	s.AnalysisID = ""
	s.Result = nil
	s.ActiveTab = TabOverview
	s.Messages = []analyzer.ChatMessage{}
	s.LastError = ""
}

// AppendMessage adds msg to the transcript, trimming it to MaxMessages.
func (s *Session) AppendMessage(msg analyzer.ChatMessage) {
	s.Messages = append(s.Messages, msg)
	if over := len(s.Messages) - MaxMessages; over > 0 {
		s.Messages = append([]analyzer.ChatMessage(nil), s.Messages[over:]...)
	}
}

// NormalizeTab maps unknown or empty tab names to the overview tab.
func NormalizeTab(tab string) string {
	tab = strings.ToLower(strings.TrimSpace(tab))
	for _, t := range Tabs {
		if t == tab {
			return t
		}
	}
	return TabOverview
}
