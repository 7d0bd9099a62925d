// Package tui is a full-screen terminal chat over a single conversation.
package tui

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/microcosm-cc/bluemonday"

	"recyclebot/internal/chat"
	"recyclebot/internal/domain"
)

// Chatter is the TUI-facing subset of a chat session.
type Chatter interface {
	Submit(ctx context.Context, input string) chat.Outcome
}

type entry struct {
	role    domain.Role
	text    string
	sources []domain.Chunk
}

// replyMsg carries a finished submission back into Update.
type replyMsg struct {
	outcome chat.Outcome
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	ctx          context.Context
	session      Chatter
	title        string
	input        textinput.Model
	viewport     viewport.Model
	renderer     *glamour.TermRenderer
	entries      []entry
	status       string
	waiting      bool
	showExcerpts bool
	ready        bool
}

// New creates a new TUI model instance. ctx bounds every submission.
func New(ctx context.Context, session Chatter, title string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about recycling in Framingham and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		session:  session,
		title:    title,
		input:    ti,
		viewport: vp,
		status:   "Enter to ask, tab to show excerpts, esc to quit.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and reply events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		tw, th := transcriptBoxStyle.GetFrameSize()
		iw, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + 1 + ih + th // header, input line, status
		m.viewport.Width = max(1, msg.Width-tw)
		m.viewport.Height = max(1, msg.Height-reserved)
		// the input renders prompt + Width + 1 cursor cell
		m.input.Width = max(1, msg.Width-iw-lipgloss.Width(m.input.Prompt)-1)
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(20, m.viewport.Width-6)),
		); err == nil {
			m.renderer = r
		}
		m.refresh()
		return m, nil
	case replyMsg:
		m.waiting = false
		m.input.Focus()
		m.entries = append(m.entries, replyEntry(msg.outcome))
		m.status = statusFor(msg.outcome)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab:
			m.showExcerpts = !m.showExcerpts
			m.refresh()
			return m, nil
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			q := strings.TrimSpace(m.input.Value())
			if q == "" {
				return m, nil
			}
			m.input.Reset()
			m.input.Blur()
			m.waiting = true
			m.status = "Thinking..."
			m.entries = append(m.entries, entry{role: domain.RoleUser, text: q})
			m.refresh()
			return m, m.submit(q)
		}
	}
	if m.waiting {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(q string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		return replyMsg{outcome: session.Submit(ctx, q)}
	}
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render(m.title)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m.entries, m.showExcerpts, m.markdown))
	m.viewport.GotoBottom()
}

func (m Model) markdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func replyEntry(out chat.Outcome) entry {
	if out.Kind == chat.OutcomeAnswered {
		return entry{role: domain.RoleAssistant, text: plainText(out.Answer.Text), sources: out.Answer.Chunks}
	}
	return entry{role: domain.RoleAssistant, text: plainText(out.Reply)}
}

func statusFor(out chat.Outcome) string {
	switch out.Kind {
	case chat.OutcomeAnswered:
		return fmt.Sprintf("Answered from %d excerpt(s).", len(out.Answer.Chunks))
	case chat.OutcomeRefused:
		return "Question looked off topic."
	case chat.OutcomeFailed:
		return "Something went wrong; see the log for details."
	default:
		return ""
	}
}

var strictPolicy = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// plainText strips all markup and collapses the spaces left behind, keeping
// line breaks for the markdown renderer.
func plainText(s string) string {
	lines := strings.Split(html.UnescapeString(strictPolicy.Sanitize(s)), "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func renderTranscript(entries []entry, showExcerpts bool, markdown func(string) string) string {
	if len(entries) == 0 {
		return hintStyle.Render("No questions yet. Try: Can I recycle pizza boxes?")
	}
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if e.role == domain.RoleUser {
			b.WriteString(userStyle.Render("You:") + " " + e.text)
			continue
		}
		b.WriteString(assistantStyle.Render("Recyclebot:") + "\n")
		b.WriteString(indent(markdown(e.text), "  "))
		if src := renderSources(e.sources, showExcerpts); src != "" {
			b.WriteString("\n" + indent(src, "  "))
		}
	}
	return b.String()
}

func renderSources(chunks []domain.Chunk, showExcerpts bool) string {
	if len(chunks) == 0 {
		return ""
	}
	lines := []string{sourceHeaderStyle.Render("Sources:")}
	for i, ch := range chunks {
		label := ch.Source
		if label == "" {
			label = fmt.Sprintf("Source %d", i+1)
		}
		lines = append(lines, "📄 "+label)
		if showExcerpts {
			lines = append(lines, excerptStyle.Render(indent(strings.TrimSpace(ch.Text), "   ")))
		}
	}
	return strings.Join(lines, "\n")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

var (
	headerStyle        = lipgloss.NewStyle().Bold(true)
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceHeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true)
	excerptStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
