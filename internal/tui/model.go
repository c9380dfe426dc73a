// Package tui is the terminal chat about an analysed repository.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"

	"repo-analyzer-client/internal/analyzer"
	"repo-analyzer-client/internal/chat"
	"repo-analyzer-client/internal/sessions"
)

const (
	headerHeight = 3
	footerHeight = 4
)

// Asker forwards a question with the analysis as context.
type Asker interface {
	Chat(ctx context.Context, question string, result analyzer.Result) (string, error)
}

type answerMsg struct {
	content string
	err     error
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	asker    Asker
	result   analyzer.Result
	timeout  time.Duration
	styles   Styles
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	messages []analyzer.ChatMessage
	waiting  bool
	lastErr  error
}

// New builds a chat model over result. timeout bounds each question; zero
// leaves it to the client.
func New(asker Asker, result analyzer.Result, timeout time.Duration) Model {
	styles := DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Ask about the code, architecture or anything in the analysis..."
	ti.Prompt = "> "
	ti.CharLimit = 2000
	ti.Width = 76
	ti.PromptStyle = styles.User
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)

	m := Model{
		asker:    asker,
		result:   result,
		timeout:  timeout,
		styles:   styles,
		input:    ti,
		viewport: vp,
		spinner:  sp,
	}
	m.viewport.SetContent(m.renderHistory())
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			question := strings.TrimSpace(m.input.Value())
			if question == "" || m.waiting {
				return m, nil
			}
			m.append(analyzer.RoleUser, question)
			m.input.Reset()
			m.waiting = true
			m.lastErr = nil
			return m, tea.Batch(m.spinner.Tick, m.ask(question))
		}

	case answerMsg:
		m.waiting = false
		content := msg.content
		if msg.err != nil {
			m.lastErr = msg.err
			content = chat.ErrorReply
		}
		m.append(analyzer.RoleAssistant, content)
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		height := msg.Height - headerHeight - footerHeight
		if height < 3 {
			height = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = height
		m.input.Width = msg.Width - 4
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(msg.Width-4),
		)
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil
	}

	var inputCmd, vpCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(inputCmd, vpCmd)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Chat: "+m.result.FullName()) + "\n")
	b.WriteString(m.styles.Subtitle.Render("Answers use the analysis as context.") + "\n\n")
	b.WriteString(m.viewport.View() + "\n")
	switch {
	case m.waiting:
		b.WriteString(m.spinner.View() + " Thinking...\n")
	case m.lastErr != nil:
		b.WriteString(m.styles.Error.Render(m.lastErr.Error()) + "\n")
	default:
		b.WriteString("\n")
	}
	b.WriteString(m.input.View() + "\n")
	b.WriteString(m.styles.Help.Render("enter: send | esc: quit"))
	return b.String()
}

// Messages returns the transcript in the order it was written.
func (m Model) Messages() []analyzer.ChatMessage {
	return m.messages
}

func (m Model) ask(question string) tea.Cmd {
	asker, result, timeout := m.asker, m.result, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		answer, err := asker.Chat(ctx, question, result)
		return answerMsg{content: answer, err: err}
	}
}

func (m *Model) append(role, content string) {
	m.messages = append(m.messages, analyzer.ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	if over := len(m.messages) - sessions.MaxMessages; over > 0 {
		m.messages = append([]analyzer.ChatMessage(nil), m.messages[over:]...)
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	if len(m.messages) == 0 {
		return m.styles.Subtitle.Render("Ask a question about " + m.result.FullName() + ".")
	}
	var b strings.Builder
	for _, msg := range m.messages {
		if msg.Role == analyzer.RoleUser {
			b.WriteString(m.styles.User.Render("You") + "\n")
			b.WriteString(msg.Content + "\n\n")
			continue
		}
		b.WriteString(m.styles.Assistant.Render("Assistant") + "\n")
		content := msg.Content
		if m.renderer != nil {
			if rendered, err := m.renderer.Render(content); err == nil {
				content = strings.TrimSpace(rendered)
			}
		}
		b.WriteString(content + "\n\n")
	}
	return b.String()
}
