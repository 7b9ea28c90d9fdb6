package handlers

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/tui/state"
	"github.com/julianstephens/fitbuddy/internal/utils"
)

// OpenWeightForm shows the weight form, prefilled with the day's weight.
func OpenWeightForm(m *state.Model) {
	m.WeightForm = &state.WeightFormModel{}
	if w := m.Ledger.GetLog(m.Day).Weight; w != nil {
		m.WeightForm.Weight = utils.FormatQuantity(*w)
	}
	m.OpenForm(constants.StateSetWeight, NewWeightForm(m.WeightForm))
}

// HandleSetWeightState handles the set weight state
func HandleSetWeightState(m *state.Model, msg tea.Msg) tea.Cmd {
	cmd, closed := updateForm(m, msg)
	if closed {
		return nil
	}

	switch m.Form.State {
	case huh.StateCompleted:
		weight, err := utils.ParsePositive(m.WeightForm.Weight)
		if err != nil {
			retry(m, err)
			return cmd
		}
		if err := m.Ledger.SetWeight(m.Day, weight); err != nil {
			retry(m, fmt.Errorf("failed to save weight: %w", err))
			return cmd
		}
		m.Refresh()
		m.CloseForm()
		m.Notice = fmt.Sprintf("Weight set to %s kg", utils.FormatQuantity(weight))
	case huh.StateAborted:
		m.CloseForm()
	}
	return cmd
}

// OpenTargetsForm shows the targets form, prefilled with the day's targets.
func OpenTargetsForm(m *state.Model) {
	t := m.Ledger.GetLog(m.Day).Targets
	m.TargetsForm = &state.TargetsFormModel{
		Calories: utils.FormatQuantity(t.Calories),
		Protein:  utils.FormatQuantity(t.Protein),
		Carbs:    utils.FormatQuantity(t.Carbs),
		Fat:      utils.FormatQuantity(t.Fat),
	}
	m.OpenForm(constants.StateSetTargets, NewTargetsForm(m.TargetsForm))
}

// HandleSetTargetsState handles the set targets state
func HandleSetTargetsState(m *state.Model, msg tea.Msg) tea.Cmd {
	cmd, closed := updateForm(m, msg)
	if closed {
		return nil
	}

	switch m.Form.State {
	case huh.StateCompleted:
		var t models.Nutrients
		var err error
		if t.Calories, err = utils.ParsePositive(m.TargetsForm.Calories); err != nil {
			retry(m, fmt.Errorf("calories: %w", err))
			return cmd
		}
		for _, f := range []struct {
			raw string
			dst *float64
		}{
			{m.TargetsForm.Protein, &t.Protein},
			{m.TargetsForm.Carbs, &t.Carbs},
			{m.TargetsForm.Fat, &t.Fat},
		} {
			if *f.dst, err = utils.ParseQuantity(f.raw); err != nil {
				retry(m, err)
				return cmd
			}
		}
		if err := m.Ledger.SetTargets(m.Day, t); err != nil {
			retry(m, fmt.Errorf("failed to save targets: %w", err))
			return cmd
		}
		m.Refresh()
		m.CloseForm()
		m.Notice = "Targets updated"
	case huh.StateAborted:
		m.CloseForm()
	}
	return cmd
}
