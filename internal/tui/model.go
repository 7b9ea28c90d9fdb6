package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/fitbuddy/internal/advisor"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/ledger"
	"github.com/julianstephens/fitbuddy/internal/tui/handlers"
	"github.com/julianstephens/fitbuddy/internal/tui/state"
)

// Options are the collaborators the dashboard drives. Only Ledger is
// required; a nil Chat answers every question with the fallback.
type Options struct {
	Ledger   *ledger.Ledger
	Chat     *advisor.Chat
	Voice    state.VoiceSession
	Analyzer state.Analyzer
	AIError  error
}

type Model struct {
	state.Model
}

// NewModel opens the dashboard on the last viewed day, or today.
func NewModel(opts Options) Model {
	day := opts.Ledger.Today()
	if last, ok := opts.Ledger.LastViewedDate(); ok {
		day = last.In(day.Location())
	}

	m := Model{Model: state.New(opts.Ledger, day)}
	m.Chat = opts.Chat
	if m.Chat == nil {
		m.Chat = advisor.NewChat(nil)
	}
	m.Voice = opts.Voice
	m.Analyzer = opts.Analyzer
	m.AIError = opts.AIError
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.Keys.Tab, m.Keys.Quit, m.Keys.Help}
	switch m.State {
	case constants.StateToday:
		tk := m.TodayModel.Keys()
		keys = append(keys, tk.AddMeal, tk.Photo, tk.AddTraining, tk.Weight)
	case constants.StateChat:
		keys = []key.Binding{m.Keys.Tab, m.Keys.ShiftTab}
	case constants.StateLive:
		lk := m.LiveModel.Keys()
		keys = append(keys, lk.Start, lk.Stop)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.Keys.Tab, m.Keys.ShiftTab, m.Keys.Quit, m.Keys.Help}
	navigation := []key.Binding{m.Keys.Up, m.Keys.Down, m.Keys.Left, m.Keys.Right}

	var actions []key.Binding
	switch m.State {
	case constants.StateToday:
		tk := m.TodayModel.Keys()
		actions = []key.Binding{tk.AddMeal, tk.Photo, tk.AddTraining, tk.Weight, tk.Targets, tk.Delete, tk.PrevDay, tk.NextDay, tk.Today}
	case constants.StateLive:
		lk := m.LiveModel.Keys()
		actions = []key.Binding{lk.Start, lk.Stop}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.ChatModel.Init(), handlers.WaitForVoiceEvent(m.Voice))
}
