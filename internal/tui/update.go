package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/tui/components/chat"
	"github.com/julianstephens/fitbuddy/internal/tui/components/live"
	"github.com/julianstephens/fitbuddy/internal/tui/components/today"
	"github.com/julianstephens/fitbuddy/internal/tui/handlers"
)

// chromeHeight is the space taken by the tabs, notice line and help.
const chromeHeight = 5

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Messages handled in every state
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case handlers.VoiceEventMsg:
		return m, handlers.HandleVoiceEvent(&m.Model, msg)
	case handlers.AnswerMsg:
		handlers.HandleAnswer(&m.Model, msg)
		return m, nil
	case handlers.MealAnalyzedMsg:
		handlers.HandleMealAnalyzed(&m.Model, msg)
		return m, m.initForm()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, handlers.Quit(&m.Model)
		}
	}

	switch m.State {
	case constants.StateAddMeal:
		return m, handlers.HandleAddMealState(&m.Model, msg)
	case constants.StateAnalyzePhoto:
		return m, handlers.HandleAnalyzePhotoState(&m.Model, msg)
	case constants.StateAnalyzing:
		return m, handlers.HandleAnalyzingState(&m.Model, msg)
	case constants.StateAddTraining:
		return m, handlers.HandleAddTrainingState(&m.Model, msg)
	case constants.StateSetWeight:
		return m, handlers.HandleSetWeightState(&m.Model, msg)
	case constants.StateSetTargets:
		return m, handlers.HandleSetTargetsState(&m.Model, msg)
	case constants.StateConfirmDelete:
		return m, handlers.HandleConfirmDeleteState(&m.Model, msg)
	}

	switch msg := msg.(type) {
	case today.AddMealMsg:
		handlers.OpenMealForm(&m.Model, models.MealDraft{})
		return m, m.initForm()
	case today.AnalyzePhotoMsg:
		handlers.OpenPhotoForm(&m.Model)
		return m, m.initForm()
	case today.AddTrainingMsg:
		handlers.OpenTrainingForm(&m.Model)
		return m, m.initForm()
	case today.SetWeightMsg:
		handlers.OpenWeightForm(&m.Model)
		return m, m.initForm()
	case today.SetTargetsMsg:
		handlers.OpenTargetsForm(&m.Model)
		return m, m.initForm()
	case today.DeleteEntryMsg:
		handlers.ConfirmDelete(&m.Model, msg.Entry)
		return m, nil
	case today.ShiftDayMsg:
		handlers.ShiftDay(&m.Model, msg.Days)
		return m, nil
	case chat.AskMsg:
		return m, handlers.Ask(&m.Model, msg.Question)
	case live.StartMsg:
		handlers.StartVoice(&m.Model)
		return m, nil
	case live.StopMsg:
		handlers.StopVoice(&m.Model)
		return m, nil
	case tea.KeyMsg:
		if handled, cmd := handlers.HandleGlobalKeys(&m.Model, msg); handled {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	switch m.State {
	case constants.StateToday:
		m.TodayModel, cmd = m.TodayModel.Update(msg)
	case constants.StateProgress:
		m.ProgressModel, cmd = m.ProgressModel.Update(msg)
	case constants.StateChat:
		m.ChatModel, cmd = m.ChatModel.Update(msg)
	case constants.StateLive:
		m.LiveModel, cmd = m.LiveModel.Update(msg)
	}
	return m, cmd
}

func (m *Model) initForm() tea.Cmd {
	if m.Form == nil {
		return nil
	}
	return m.Form.Init()
}

func (m *Model) resize(width, height int) {
	m.Width = width
	m.Height = height
	m.Help.Width = width

	w, h := max(0, width-4), max(0, height-chromeHeight-2)
	m.TodayModel.SetSize(w, h)
	m.ProgressModel.SetSize(w, h)
	m.ChatModel.SetSize(w, h)
	m.LiveModel.SetSize(width, max(0, height-chromeHeight))
}
