package state

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/fitbuddy/internal/advisor"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/gemini"
	"github.com/julianstephens/fitbuddy/internal/ledger"
	"github.com/julianstephens/fitbuddy/internal/tui/components/chat"
	"github.com/julianstephens/fitbuddy/internal/tui/components/live"
	"github.com/julianstephens/fitbuddy/internal/tui/components/progress"
	"github.com/julianstephens/fitbuddy/internal/tui/components/today"
	"github.com/julianstephens/fitbuddy/internal/voice"
)

// Analyzer estimates the nutrients of a meal photo. *gemini.Client satisfies it.
type Analyzer interface {
	AnalyzeMeal(ctx context.Context, image []byte, mediaType string) (gemini.MealAnalysis, error)
}

// VoiceSession is the part of *voice.Session the Live tab drives.
type VoiceSession interface {
	Start(ctx context.Context)
	Stop()
	Updates() <-chan voice.Event
	State() voice.State
}

// MealFormModel represents the form model for logging a meal
type MealFormModel struct {
	Name     string
	Calories string
	Protein  string
	Carbs    string
	Fat      string
	// ImageURL is carried over from photo analysis and not editable.
	ImageURL string
}

// PhotoFormModel represents the form model for choosing a meal photo
type PhotoFormModel struct {
	Path string
}

// TrainingFormModel represents the form model for logging a training
type TrainingFormModel struct {
	Name     string
	Duration string
	Calories string
}

type WeightFormModel struct {
	Weight string
}

// TargetsFormModel represents the form model for the day's targets
type TargetsFormModel struct {
	Calories string
	Protein  string
	Carbs    string
	Fat      string
}

// Model represents the shared state for the TUI
type Model struct {
	Ledger   *ledger.Ledger
	Chat     *advisor.Chat
	Voice    VoiceSession
	Analyzer Analyzer
	// AIError explains why Analyzer is nil.
	AIError error

	State         constants.SessionState
	PreviousState constants.SessionState
	Keys          KeyMap
	Help          help.Model
	Day           time.Time

	TodayModel    today.Model
	ProgressModel progress.Model
	ChatModel     chat.Model
	LiveModel     live.Model

	Form          *huh.Form
	MealForm      *MealFormModel
	PhotoForm     *PhotoFormModel
	TrainingForm  *TrainingFormModel
	WeightForm    *WeightFormModel
	TargetsForm   *TargetsFormModel
	EntryToDelete *today.Item

	Quitting  bool
	Width     int
	Height    int
	Notice    string // Result of the last action, shown under the tabs
	FormError string // Error message to display for form operations
}

// New creates a new state Model showing day.
func New(l *ledger.Ledger, day time.Time) Model {
	m := Model{
		Ledger:        l,
		State:         constants.StateToday,
		Keys:          DefaultKeyMap(),
		Help:          help.New(),
		Day:           day,
		TodayModel:    today.New(0, 0),
		ProgressModel: progress.New(nil, 0, 0),
		ChatModel:     chat.New(0, 0),
		LiveModel:     live.New(),
	}
	m.Refresh()
	return m
}

// IsTab reports whether the current state is one of the top-level tabs.
func (m *Model) IsTab() bool {
	return int(m.State) < constants.TabCount
}

// OpenForm shows form in state s. Esc or completion returns to the tab
// that was active.
func (m *Model) OpenForm(s constants.SessionState, form *huh.Form) {
	if m.IsTab() {
		m.PreviousState = m.State
	}
	m.FormError = ""
	m.Form = form
	m.State = s
}

// CloseForm returns to the tab the form was opened from.
func (m *Model) CloseForm() {
	m.Form = nil
	m.FormError = ""
	m.State = m.PreviousState
}
