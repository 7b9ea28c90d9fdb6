package handlers

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/tui/state"
)

// HandleGlobalKeys handles key presses shared by every tab. Letter
// shortcuts are left to the chat input while the Chat tab is shown.
func HandleGlobalKeys(m *state.Model, msg tea.KeyMsg) (bool, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return true, Quit(m)
	}
	typing := m.State == constants.StateChat

	switch {
	case key.Matches(msg, m.Keys.Tab), !typing && key.Matches(msg, m.Keys.Right):
		SwitchTab(m, (int(m.State)+1)%constants.TabCount)
		return true, nil
	case key.Matches(msg, m.Keys.ShiftTab), !typing && key.Matches(msg, m.Keys.Left):
		SwitchTab(m, (int(m.State)+constants.TabCount-1)%constants.TabCount)
		return true, nil
	case typing:
		return false, nil
	case key.Matches(msg, m.Keys.Quit):
		return true, Quit(m)
	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll
		return true, nil
	}
	return false, nil
}

// SwitchTab shows tab i. Leaving the Live tab ends any voice session.
func SwitchTab(m *state.Model, i int) {
	next := constants.SessionState(i)
	if m.State == constants.StateLive && next != constants.StateLive {
		StopVoice(m)
	}
	m.State = next
	m.Notice = ""
}

// Quit shuts the voice session down and exits.
func Quit(m *state.Model) tea.Cmd {
	StopVoice(m)
	m.RememberDay()
	m.Quitting = true
	return tea.Quit
}
