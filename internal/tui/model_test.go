package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recyclebot/internal/chat"
	"recyclebot/internal/domain"
)

type fakeChatter struct {
	outcome chat.Outcome
	inputs  []string
}

func (f *fakeChatter) Submit(_ context.Context, input string) chat.Outcome {
	f.inputs = append(f.inputs, input)
	return f.outcome
}

func identity(s string) string { return s }

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Yes. 📄 Guide Clean & dry", plainText("Yes. <details><summary>📄 Guide</summary><div>Clean &amp; dry</div></details>"))
	assert.Equal(t, "a < b", plainText("a &lt; b"))
}

func TestRenderSourcesCollapsedByDefault(t *testing.T) {
	chunks := []domain.Chunk{{Source: "RecyclingGuide2023", Text: "Pizza boxes go in the cart."}, {Text: "Glass jars too."}}

	collapsed := renderSources(chunks, false)
	assert.Contains(t, collapsed, "📄 RecyclingGuide2023")
	assert.Contains(t, collapsed, "📄 Source 2")
	assert.NotContains(t, collapsed, "Pizza boxes")

	expanded := renderSources(chunks, true)
	assert.Contains(t, expanded, "Pizza boxes go in the cart.")
	assert.Contains(t, expanded, "Glass jars too.")

	assert.Empty(t, renderSources(nil, true))
}

func TestRenderTranscript(t *testing.T) {
	assert.Contains(t, renderTranscript(nil, false, identity), "No questions yet")

	out := renderTranscript([]entry{
		{role: domain.RoleUser, text: "pizza?"},
		{role: domain.RoleAssistant, text: "Clean boxes only.", sources: []domain.Chunk{{Source: "Guide"}}},
	}, false, identity)
	assert.Contains(t, out, "You: pizza?")
	assert.Contains(t, out, "  Clean boxes only.")
	assert.Contains(t, out, "📄 Guide")
	assert.Less(t, strings.Index(out, "pizza?"), strings.Index(out, "Clean boxes"))
}

func TestEnterSubmitsAsynchronously(t *testing.T) {
	fake := &fakeChatter{outcome: chat.Outcome{
		Kind:   chat.OutcomeAnswered,
		Reply:  "Yes.<div class='sources'></div>",
		Answer: domain.Answer{Text: "Yes.", Chunks: []domain.Chunk{{Source: "Guide", Text: "excerpt"}}},
	}}
	m := New(context.Background(), fake, "Recyclebot")
	m.input.SetValue("  can I recycle pizza boxes?  ")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.True(t, m.waiting)
	assert.Equal(t, "Thinking...", m.status)
	assert.Empty(t, m.input.Value())
	assert.Empty(t, fake.inputs, "submission runs in the command, not in Update")

	// A second enter while waiting is ignored.
	_, again := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	reply := cmd()
	assert.Equal(t, []string{"can I recycle pizza boxes?"}, fake.inputs)

	next, _ = m.Update(reply)
	m = next.(Model)
	assert.False(t, m.waiting)
	require.Len(t, m.entries, 2)
	assert.Equal(t, "Yes.", m.entries[1].text)
	assert.Len(t, m.entries[1].sources, 1)
}

func TestFailedReplyShowsApology(t *testing.T) {
	m := New(context.Background(), &fakeChatter{}, "Recyclebot")
	next, _ := m.Update(replyMsg{outcome: chat.Outcome{Kind: chat.OutcomeFailed, Reply: chat.ApologyMessage}})
	m = next.(Model)
	require.Len(t, m.entries, 1)
	assert.Equal(t, chat.ApologyMessage, m.entries[0].text)
	assert.Empty(t, m.entries[0].sources)
}

func TestBlankEnterDoesNothing(t *testing.T) {
	fake := &fakeChatter{}
	m := New(context.Background(), fake, "Recyclebot")
	m.input.SetValue("   ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, next.(Model).entries)
}

func TestTabTogglesExcerpts(t *testing.T) {
	m := New(context.Background(), &fakeChatter{}, "Recyclebot")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, next.(Model).showExcerpts)
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, next.(Model).showExcerpts)
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc} {
		_, cmd := New(context.Background(), &fakeChatter{}, "Recyclebot").Update(tea.KeyMsg{Type: k})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestViewFitsWindow(t *testing.T) {
	m := New(context.Background(), &fakeChatter{}, "Recyclebot")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	next, _ = next.Update(replyMsg{outcome: chat.Outcome{
		Kind:   chat.OutcomeAnswered,
		Answer: domain.Answer{Text: strings.Repeat("Clean cardboard goes in the recycling cart. ", 12), Chunks: []domain.Chunk{{Source: "RecyclingGuide2023"}}},
	}})

	lines := strings.Split(next.View(), "\n")
	assert.Len(t, lines, 24)
	for i, l := range lines {
		assert.LessOrEqual(t, lipgloss.Width(l), 80, "line %d", i)
	}
}
