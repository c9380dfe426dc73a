package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/sessions"
)

type fakeAsker struct {
	questions []string
	contexts  []analyzer.Result
	answer    func(q string) (string, error)
}

func (f *fakeAsker) Chat(ctx context.Context, question string, result analyzer.Result) (string, error) {
	f.questions = append(f.questions, question)
	f.contexts = append(f.contexts, result)
	return f.answer(question)
}

func echoAsker() *fakeAsker {
	return &fakeAsker{answer: func(q string) (string, error) { return "re: " + q, nil }}
}

func seeded(t *testing.T) *sessions.MemoryRepo {
	t.Helper()
	repo := sessions.NewMemoryRepo()
	s := sessions.New("s-1", time.Now().UTC())
	s.Result = &analyzer.Result{RepoName: "gin", RepoOwner: "gin-gonic"}
	require.NoError(t, repo.Save(context.Background(), s))
	return repo
}

func TestAskAppendsInOrder(t *testing.T) {
	asker := echoAsker()
	svc := &Service{Backend: asker, Sessions: seeded(t)}
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := svc.Ask(ctx, "s-1", fmt.Sprintf("  q%d  ", i))
		require.NoError(t, err)
	}

	messages, err := svc.Transcript(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, messages, 6)
	want := []string{"q1", "re: q1", "q2", "re: q2", "q3", "re: q3"}
	for i, m := range messages {
		assert.Equal(t, want[i], m.Content)
		if i%2 == 0 {
			assert.Equal(t, analyzer.RoleUser, m.Role)
		} else {
			assert.Equal(t, analyzer.RoleAssistant, m.Role)
		}
		assert.NotEmpty(t, m.ID)
	}
	assert.Equal(t, "gin-gonic/gin", asker.contexts[0].FullName(), "analysis must be sent as context")
}

func TestAskBackendFailureRecordsErrorReply(t *testing.T) {
	asker := &fakeAsker{answer: func(string) (string, error) { return "", errors.New("boom") }}
	svc := &Service{Backend: asker, Sessions: seeded(t)}

	ex, err := svc.Ask(context.Background(), "s-1", "why?")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	assert.Equal(t, ErrorReply, ex.Answer.Content)
	require.Len(t, ex.Messages, 2)
	assert.Equal(t, ErrorReply, ex.Messages[1].Content)
}

func TestAskValidation(t *testing.T) {
	asker := echoAsker()
	svc := &Service{Backend: asker, Sessions: sessions.NewMemoryRepo()}

	_, err := svc.Ask(context.Background(), "s-1", "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = svc.Ask(context.Background(), "s-1", "hello")
	assert.ErrorIs(t, err, ErrNoAnalysis)
	assert.Empty(t, asker.questions)
}

func TestAskCapsTranscript(t *testing.T) {
	svc := &Service{Backend: echoAsker(), Sessions: seeded(t)}
	ctx := context.Background()
	for i := 0; i < sessions.MaxMessages; i++ {
		_, err := svc.Ask(ctx, "s-1", fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}
	messages, err := svc.Transcript(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, messages, sessions.MaxMessages)
	assert.Equal(t, fmt.Sprintf("re: q%d", sessions.MaxMessages-1), messages[len(messages)-1].Content)
}

// replacingAsker swaps the session's analysis while the question is in flight.
type replacingAsker struct {
	repo    *sessions.MemoryRepo
	replace func(s *sessions.Session)
}

func (a *replacingAsker) Chat(ctx context.Context, question string, result analyzer.Result) (string, error) {
	s, err := a.repo.Get(ctx, "s-1")
	if err != nil {
		return "", err
	}
	a.replace(&s)
	if err := a.repo.Save(ctx, s); err != nil {
		return "", err
	}
	return "answer about " + result.FullName(), nil
}

func TestAskDropsAnswerWhenAnalysisReplaced(t *testing.T) {
	tests := []struct {
		name    string
		replace func(s *sessions.Session)
		wantErr error
	}{
		{
			name: "new analysis",
			replace: func(s *sessions.Session) {
				s.Result = &analyzer.Result{RepoName: "thing", RepoOwner: "other"}
				s.AnalysisID = "a-2"
				s.Messages = []analyzer.ChatMessage{}
			},
			wantErr: ErrAnalysisChanged,
		},
		{
			name:    "reset",
			replace: func(s *sessions.Session) { s.Reset() },
			wantErr: ErrNoAnalysis,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo := seeded(t)
			ctx := context.Background()
			s, err := repo.Get(ctx, "s-1")
			require.NoError(t, err)
			s.AnalysisID = "a-1"
			require.NoError(t, repo.Save(ctx, s))

			svc := &Service{Backend: &replacingAsker{repo: repo, replace: tt.replace}, Sessions: repo}
			_, err = svc.Ask(ctx, "s-1", "what does the router do?")
			require.ErrorIs(t, err, tt.wantErr)

			messages, err := svc.Transcript(ctx, "s-1")
			require.NoError(t, err)
			assert.Empty(t, messages)
		})
	}
}
