package handlers

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/tui/state"
	"github.com/julianstephens/fitbuddy/internal/utils"
)

func OpenTrainingForm(m *state.Model) {
	m.TrainingForm = &state.TrainingFormModel{}
	m.OpenForm(constants.StateAddTraining, NewTrainingForm(m.TrainingForm))
}

// HandleAddTrainingState handles the add training state
func HandleAddTrainingState(m *state.Model, msg tea.Msg) tea.Cmd {
	cmd, closed := updateForm(m, msg)
	if closed {
		return nil
	}

	switch m.Form.State {
	case huh.StateCompleted:
		duration, err := utils.ParsePositive(m.TrainingForm.Duration)
		if err != nil {
			retry(m, fmt.Errorf("duration: %w", err))
			return cmd
		}
		burned, err := utils.ParsePositive(m.TrainingForm.Calories)
		if err != nil {
			retry(m, fmt.Errorf("calories burned: %w", err))
			return cmd
		}
		training, err := m.Ledger.AddTraining(m.Day, models.TrainingDraft{
			Name:           strings.TrimSpace(m.TrainingForm.Name),
			DurationMin:    duration,
			CaloriesBurned: burned,
		})
		if err != nil {
			retry(m, fmt.Errorf("failed to save training: %w", err))
			return cmd
		}
		m.Refresh()
		m.CloseForm()
		m.Notice = fmt.Sprintf("Logged %s · %s kcal burned today", training.Name, utils.FormatQuantity(m.Ledger.CaloriesBurned(m.Day)))
	case huh.StateAborted:
		m.CloseForm()
	}
	return cmd
}
