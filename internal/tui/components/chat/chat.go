package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/fitbuddy/internal/models"
)

// AskMsg is sent when the user submits a question.
type AskMsg struct {
	Question string
}

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

const inputHeight = 2

type Model struct {
	messages []models.ChatMessage
	pending  string
	busy     bool
	input    textinput.Model
	viewport viewport.Model
	width    int
	height   int
}

func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your nutrition..."
	ti.Prompt = "> "
	ti.CharLimit = 500
	ti.Focus()

	m := Model{
		input:    ti,
		viewport: viewport.New(width, max(0, height-inputHeight)),
		width:    width,
		height:   height,
	}
	m.updateViewportContent()
	return m
}

// SetMessages replaces the transcript and clears the pending question.
func (m *Model) SetMessages(msgs []models.ChatMessage) {
	m.messages = msgs
	m.pending = ""
	m.busy = false
	m.updateViewportContent()
	m.viewport.GotoBottom()
}

func (m Model) Busy() bool {
	return m.busy
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.input.Reset()
			m.pending = q
			m.busy = true
			m.updateViewportContent()
			m.viewport.GotoBottom()
			return m, func() tea.Msg { return AskMsg{Question: q} }
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), "", m.input.View())
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(0, height-inputHeight)
	m.input.Width = max(10, width-4)
	m.updateViewportContent()
}

func (m *Model) updateViewportContent() {
	if len(m.messages) == 0 && m.pending == "" {
		m.viewport.SetContent(emptyStyle.Render("Ask me anything about your meals, targets or training."))
		return
	}

	wrap := lipgloss.NewStyle().Width(max(20, m.width-2))
	var sections []string
	for _, msg := range m.messages {
		sections = append(sections, renderMessage(wrap, msg))
	}
	if m.pending != "" {
		sections = append(sections,
			userStyle.Render("You")+"\n"+wrap.Render(m.pending),
			assistantStyle.Render("Coach")+"\n"+emptyStyle.Render("Thinking..."))
	}
	m.viewport.SetContent(strings.Join(sections, "\n\n"))
}

func renderMessage(wrap lipgloss.Style, msg models.ChatMessage) string {
	if msg.Sender == models.SenderUser {
		return userStyle.Render("You") + "\n" + wrap.Render(msg.Text)
	}
	lines := []string{assistantStyle.Render("Coach"), wrap.Render(msg.Text)}
	n := 0
	for _, c := range msg.Citations {
		if !c.Valid() {
			continue
		}
		n++
		lines = append(lines, sourceStyle.Render(fmt.Sprintf("[%d] %s  %s", n, c.Label(), c.Web.URI)))
	}
	return strings.Join(lines, "\n")
}
