package handlers

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/fitbuddy/internal/tui/state"
	"github.com/julianstephens/fitbuddy/internal/utils"
)

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func quantity(s string) error {
	_, err := utils.ParseQuantity(s)
	return err
}

func positive(s string) error {
	_, err := utils.ParsePositive(s)
	return err
}

// NewMealForm creates a new form for logging a meal
func NewMealForm(fm *state.MealFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Meal").
				Value(&fm.Name).
				Validate(required("meal name")),
			huh.NewInput().
				Title("Calories (kcal)").
				Value(&fm.Calories).
				Validate(quantity),
			huh.NewInput().
				Title("Protein (g)").
				Value(&fm.Protein).
				Validate(quantity),
			huh.NewInput().
				Title("Carbs (g)").
				Value(&fm.Carbs).
				Validate(quantity),
			huh.NewInput().
				Title("Fat (g)").
				Value(&fm.Fat).
				Validate(quantity),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewPhotoForm creates a new form for choosing a meal photo
func NewPhotoForm(fm *state.PhotoFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Photo").
				Description("Path to a picture of the meal").
				Value(&fm.Path).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("photo path cannot be empty")
					}
					_, err := utils.ExpandPath(strings.TrimSpace(s))
					return err
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewTrainingForm creates a new form for logging a training
func NewTrainingForm(fm *state.TrainingFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Training").
				Value(&fm.Name).
				Validate(required("training name")),
			huh.NewInput().
				Title("Duration (min)").
				Value(&fm.Duration).
				Validate(positive),
			huh.NewInput().
				Title("Calories burned (kcal)").
				Value(&fm.Calories).
				Validate(positive),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewWeightForm creates a new form for the day's body weight
func NewWeightForm(fm *state.WeightFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Weight (kg)").
				Value(&fm.Weight).
				Validate(positive),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewTargetsForm creates a new form for the day's nutrition targets
func NewTargetsForm(fm *state.TargetsFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Calories (kcal)").
				Value(&fm.Calories).
				Validate(positive),
			huh.NewInput().
				Title("Protein (g)").
				Value(&fm.Protein).
				Validate(quantity),
			huh.NewInput().
				Title("Carbs (g)").
				Value(&fm.Carbs).
				Validate(quantity),
			huh.NewInput().
				Title("Fat (g)").
				Value(&fm.Fat).
				Validate(quantity),
		),
	).WithTheme(huh.ThemeDracula())
}

// updateForm forwards msg to the open form. It reports true when the user
// pressed Esc, after closing the form.
func updateForm(m *state.Model, msg tea.Msg) (tea.Cmd, bool) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.CloseForm()
		return nil, true
	}
	form, cmd := m.Form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.Form = f
	}
	return cmd, false
}

// retry keeps the form open after a failed save.
func retry(m *state.Model, err error) {
	m.FormError = err.Error()
	m.Form.State = huh.StateNormal
}
