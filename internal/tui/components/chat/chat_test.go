package chat

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/fitbuddy/internal/models"
)

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestSubmitQuestion(t *testing.T) {
	m := New(80, 20)
	m = typeText(m, "  how much protein?  ")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	require.Equal(t, AskMsg{Question: "how much protein?"}, cmd())
	require.True(t, m.Busy())
	require.Empty(t, m.input.Value())
	require.Contains(t, m.View(), "Thinking...")

	m = typeText(m, "again")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
}

func TestEmptyQuestionIgnored(t *testing.T) {
	m := New(80, 20)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Nil(t, cmd)
}

func TestSetMessagesRendersCitations(t *testing.T) {
	m := New(80, 20)
	m.SetMessages([]models.ChatMessage{
		{ID: "1", Sender: models.SenderUser, Text: "snack ideas?"},
		{ID: "2", Sender: models.SenderAssistant, Text: "Greek yogurt.", Citations: []models.Citation{
			{Web: &models.WebSource{URI: "https://health.example.com/yogurt"}},
			{Web: &models.WebSource{URI: " "}},
		}},
	})
	require.False(t, m.Busy())

	view := m.View()
	require.Contains(t, view, "snack ideas?")
	require.Contains(t, view, "Greek yogurt.")
	require.Contains(t, view, "[1] health.example.com")
	require.NotContains(t, view, "[2]")
}
