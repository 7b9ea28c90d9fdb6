package handlers

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/tui/components/today"
	"github.com/julianstephens/fitbuddy/internal/tui/state"
)

// ConfirmDelete asks before removing entry from the day.
func ConfirmDelete(m *state.Model, entry today.Item) {
	m.EntryToDelete = &entry
	m.PreviousState = m.State
	m.State = constants.StateConfirmDelete
}

// HandleConfirmDeleteState handles the delete confirmation state
func HandleConfirmDeleteState(m *state.Model, msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	switch keyMsg.String() {
	case "y", "Y":
		entry := m.EntryToDelete
		m.EntryToDelete = nil
		m.State = m.PreviousState

		var removed bool
		var err error
		if entry.Meal != nil {
			removed, err = m.Ledger.DeleteMeal(m.Day, entry.Meal.ID)
		} else {
			removed, err = m.Ledger.DeleteTraining(m.Day, entry.Training.ID)
		}
		switch {
		case err != nil:
			m.Notice = fmt.Sprintf("Failed to delete: %v", err)
		case removed:
			m.Notice = "Deleted " + entry.FilterValue()
		}
		m.Refresh()
	case "n", "N", "esc", "q":
		m.EntryToDelete = nil
		m.State = m.PreviousState
	}
	return nil
}
