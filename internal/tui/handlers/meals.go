package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/gemini"
	"github.com/julianstephens/fitbuddy/internal/ledger"
	"github.com/julianstephens/fitbuddy/internal/logger"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/tui/state"
	"github.com/julianstephens/fitbuddy/internal/utils"
)

// MealAnalyzedMsg carries the result of a photo analysis.
type MealAnalyzedMsg struct {
	Analysis gemini.MealAnalysis
	ImageURL string
	Err      error
}

// OpenMealForm shows the meal form, prefilled from draft.
func OpenMealForm(m *state.Model, draft models.MealDraft) {
	m.MealForm = &state.MealFormModel{
		Name:     draft.Name,
		ImageURL: draft.ImageURL,
	}
	if !draft.Nutrients.IsZero() {
		m.MealForm.Calories = utils.FormatQuantity(draft.Nutrients.Calories)
		m.MealForm.Protein = utils.FormatQuantity(draft.Nutrients.Protein)
		m.MealForm.Carbs = utils.FormatQuantity(draft.Nutrients.Carbs)
		m.MealForm.Fat = utils.FormatQuantity(draft.Nutrients.Fat)
	}
	m.OpenForm(constants.StateAddMeal, NewMealForm(m.MealForm))
}

// OpenPhotoForm asks for a meal photo. Without an analyzer the manual meal
// form is shown instead, with the reason.
func OpenPhotoForm(m *state.Model) {
	if m.Analyzer == nil {
		OpenMealForm(m, models.MealDraft{})
		m.FormError = errors.UserMessage(m.AIError, constants.StatusMissingKey) + " Enter the meal manually."
		return
	}
	m.PhotoForm = &state.PhotoFormModel{}
	m.OpenForm(constants.StateAnalyzePhoto, NewPhotoForm(m.PhotoForm))
}

// HandleAddMealState handles the add meal state
func HandleAddMealState(m *state.Model, msg tea.Msg) tea.Cmd {
	cmd, closed := updateForm(m, msg)
	if closed {
		return nil
	}

	switch m.Form.State {
	case huh.StateCompleted:
		draft, err := mealDraft(m.MealForm)
		if err != nil {
			retry(m, err)
			return cmd
		}
		meal, err := m.Ledger.AddMeal(m.Day, draft)
		if err != nil {
			retry(m, fmt.Errorf("failed to save meal: %w", err))
			return cmd
		}
		m.Refresh()
		m.CloseForm()
		m.Notice = fmt.Sprintf("Logged %s · %s", meal.Name, ledger.FormatRemaining(m.Ledger.Remaining(m.Day)))
	case huh.StateAborted:
		m.CloseForm()
	}
	return cmd
}

func mealDraft(fm *state.MealFormModel) (models.MealDraft, error) {
	d := models.MealDraft{Name: strings.TrimSpace(fm.Name), ImageURL: fm.ImageURL}
	var err error
	for _, f := range []struct {
		raw string
		dst *float64
	}{
		{fm.Calories, &d.Nutrients.Calories},
		{fm.Protein, &d.Nutrients.Protein},
		{fm.Carbs, &d.Nutrients.Carbs},
		{fm.Fat, &d.Nutrients.Fat},
	} {
		if *f.dst, err = utils.ParseQuantity(f.raw); err != nil {
			return models.MealDraft{}, err
		}
	}
	return d, nil
}

// HandleAnalyzePhotoState handles the photo selection state. Completing it
// starts the analysis in the background.
func HandleAnalyzePhotoState(m *state.Model, msg tea.Msg) tea.Cmd {
	cmd, closed := updateForm(m, msg)
	if closed {
		return nil
	}

	switch m.Form.State {
	case huh.StateCompleted:
		path, err := utils.ExpandPath(strings.TrimSpace(m.PhotoForm.Path))
		if err != nil {
			retry(m, err)
			return cmd
		}
		m.Form = nil
		m.State = constants.StateAnalyzing
		return tea.Batch(cmd, AnalyzePhoto(m.Analyzer, path))
	case huh.StateAborted:
		m.CloseForm()
	}
	return cmd
}

// AnalyzePhoto loads and analyzes the photo at path.
func AnalyzePhoto(analyzer state.Analyzer, path string) tea.Cmd {
	return func() tea.Msg {
		ref, err := filepath.Abs(path)
		if err != nil {
			ref = path
		}
		image, mediaType, err := gemini.LoadImage(path)
		if err != nil {
			return MealAnalyzedMsg{Err: errors.Analysis("tui.load_photo", err.Error(), err)}
		}
		analysis, err := analyzer.AnalyzeMeal(context.Background(), image, mediaType)
		return MealAnalyzedMsg{Analysis: analysis, ImageURL: ref, Err: err}
	}
}

// HandleMealAnalyzed opens the meal form with the estimate. A failed
// analysis opens an empty form so the meal can still be entered by hand.
// Results arriving after the user cancelled are dropped.
func HandleMealAnalyzed(m *state.Model, msg MealAnalyzedMsg) {
	if m.State != constants.StateAnalyzing {
		return
	}
	if msg.Err != nil {
		logger.Warn("meal analysis failed", "error", msg.Err)
		OpenMealForm(m, models.MealDraft{})
		m.FormError = errors.UserMessage(msg.Err, constants.AnalysisFailedText)
		return
	}
	OpenMealForm(m, msg.Analysis.Draft(msg.ImageURL))
}

// HandleAnalyzingState lets Esc abandon a running analysis.
func HandleAnalyzingState(m *state.Model, msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.CloseForm()
	}
	return nil
}
