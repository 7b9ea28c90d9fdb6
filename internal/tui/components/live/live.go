package live

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/fitbuddy/internal/voice"
)

type StartMsg struct{}

type StopMsg struct{}

type KeyMap struct {
	Start key.Binding
	Stop  key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Start: key.NewBinding(
			key.WithKeys("s", "enter"),
			key.WithHelp("s", "start talking"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x", "esc"),
			key.WithHelp("x", "stop"),
		),
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			MarginBottom(1)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	transcriptStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

type Model struct {
	keys       KeyMap
	state      voice.State
	status     string
	transcript voice.Transcript
	last       voice.Transcript
	width      int
	height     int
}

func New() Model {
	return Model{keys: DefaultKeyMap()}
}

func (m Model) Keys() KeyMap {
	return m.keys
}

// Apply folds a session event into the view. The transcript of a completed
// turn stays visible until the next turn starts.
func (m *Model) Apply(ev voice.Event) {
	m.state = ev.State
	if ev.Status != "" {
		m.status = ev.Status
	}
	switch ev.Kind {
	case voice.EventTranscript:
		m.transcript = voice.Transcript{Input: ev.Input, Output: ev.Output}
	case voice.EventTurnComplete:
		if m.transcript != (voice.Transcript{}) {
			m.last = m.transcript
		}
		m.transcript.Clear()
	case voice.EventState:
		if ev.State == voice.StateConnecting {
			m.transcript.Clear()
			m.last.Clear()
		}
	}
}

func (m Model) State() voice.State {
	return m.state
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Start):
			if m.state != voice.StateConnecting && m.state != voice.StateActive {
				return m, func() tea.Msg { return StartMsg{} }
			}
		case key.Matches(msg, m.keys.Stop):
			if m.state == voice.StateConnecting || m.state == voice.StateActive {
				return m, func() tea.Msg { return StopMsg{} }
			}
		}
	}
	return m, nil
}

func (m Model) View() string {
	sections := []string{titleStyle.Render("Live voice assistant")}

	switch m.state {
	case voice.StateActive:
		sections = append(sections, activeStyle.Render("● Live"))
	case voice.StateConnecting:
		sections = append(sections, activeStyle.Render("○ Connecting"))
	case voice.StateFailed:
		sections = append(sections, failedStyle.Render("✕ Failed"))
	}
	if m.status != "" {
		sections = append(sections, statusStyle.Render(m.status))
	}

	shown := m.transcript
	if shown == (voice.Transcript{}) {
		shown = m.last
	}
	if shown != (voice.Transcript{}) {
		w := max(20, m.width-8)
		body := lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().Width(w).Render("You: "+shown.Input),
			lipgloss.NewStyle().Width(w).Render("Coach: "+shown.Output),
		)
		sections = append(sections, "", transcriptStyle.Render(body))
	}

	hint := "Press 's' to start talking."
	if m.state == voice.StateConnecting || m.state == voice.StateActive {
		hint = "Press 'x' to end the session."
	}
	sections = append(sections, "", statusStyle.Render(hint))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
