package today

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/fitbuddy/internal/ledger"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/utils"
)

type AddMealMsg struct{}

type AnalyzePhotoMsg struct{}

type AddTrainingMsg struct{}

type SetWeightMsg struct{}

type SetTargetsMsg struct{}

// ShiftDayMsg moves the displayed day by Days. Zero jumps back to today.
type ShiftDayMsg struct {
	Days int
}

// DeleteEntryMsg asks for the selected meal or training to be removed.
type DeleteEntryMsg struct {
	Entry Item
}

// Item is one logged meal or training. Exactly one of Meal and Training is set.
type Item struct {
	Meal     *models.Meal
	Training *models.Training
	loc      *time.Location
}

func (i Item) ID() string {
	if i.Meal != nil {
		return i.Meal.ID
	}
	return i.Training.ID
}

func (i Item) Title() string {
	if i.Meal != nil {
		return "🍽  " + i.Meal.Name
	}
	return "🏃 " + i.Training.Name
}

func (i Item) Description() string {
	if i.Meal != nil {
		n := i.Meal.Nutrients
		return fmt.Sprintf("%s | %s kcal | P %sg C %sg F %sg",
			i.clock(i.Meal.Timestamp),
			utils.FormatQuantity(n.Calories), utils.FormatQuantity(n.Protein),
			utils.FormatQuantity(n.Carbs), utils.FormatQuantity(n.Fat))
	}
	return fmt.Sprintf("%s | %s min | -%s kcal",
		i.clock(i.Training.Timestamp),
		utils.FormatQuantity(i.Training.DurationMin),
		utils.FormatQuantity(i.Training.CaloriesBurned))
}

func (i Item) clock(t time.Time) string {
	if i.loc != nil {
		t = t.In(i.loc)
	}
	return t.Format("15:04")
}

func (i Item) FilterValue() string {
	if i.Meal != nil {
		return i.Meal.Name
	}
	return i.Training.Name
}

type KeyMap struct {
	AddMeal     key.Binding
	Photo       key.Binding
	AddTraining key.Binding
	Weight      key.Binding
	Targets     key.Binding
	Delete      key.Binding
	PrevDay     key.Binding
	NextDay     key.Binding
	Today       key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		AddMeal: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add meal"),
		),
		Photo: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "meal from photo"),
		),
		AddTraining: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "add training"),
		),
		Weight: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "set weight"),
		),
		Targets: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "set targets"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		PrevDay: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev day"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next day"),
		),
		Today: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "today"),
		),
	}
}

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Width(10)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	overStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

// summaryHeight is the number of lines the nutrient summary occupies.
const summaryHeight = 9

type Model struct {
	list      list.Model
	keys      KeyMap
	bar       progress.Model
	date      string
	log       models.DailyLog
	totals    models.Nutrients
	burned    float64
	remaining float64
	width     int
}

func New(width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, max(0, height-summaryHeight))
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.AddMeal, keys.Photo, keys.AddTraining, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.AddMeal, keys.Photo, keys.AddTraining, keys.Weight, keys.Targets, keys.Delete, keys.PrevDay, keys.NextDay, keys.Today}
	}

	return Model{
		list:  l,
		keys:  keys,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		width: width,
	}
}

// SetDay replaces the displayed day. Meals are listed before trainings,
// each in logging order.
func (m *Model) SetDay(date string, day models.DailyLog, burned float64, loc *time.Location) {
	m.date = date
	m.log = day
	m.totals = ledger.TotalsOf(day)
	m.burned = burned
	m.remaining = day.Targets.Calories - m.totals.Calories

	items := make([]list.Item, 0, len(day.Meals)+len(day.Trainings))
	for i := range day.Meals {
		items = append(items, Item{Meal: &day.Meals[i], loc: loc})
	}
	for i := range day.Trainings {
		items = append(items, Item{Training: &day.Trainings[i], loc: loc})
	}
	m.list.SetItems(items)
}

func (m Model) Keys() KeyMap {
	return m.keys
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.AddMeal):
			return m, func() tea.Msg { return AddMealMsg{} }
		case key.Matches(msg, m.keys.Photo):
			return m, func() tea.Msg { return AnalyzePhotoMsg{} }
		case key.Matches(msg, m.keys.AddTraining):
			return m, func() tea.Msg { return AddTrainingMsg{} }
		case key.Matches(msg, m.keys.Weight):
			return m, func() tea.Msg { return SetWeightMsg{} }
		case key.Matches(msg, m.keys.Targets):
			return m, func() tea.Msg { return SetTargetsMsg{} }
		case key.Matches(msg, m.keys.PrevDay):
			return m, func() tea.Msg { return ShiftDayMsg{Days: -1} }
		case key.Matches(msg, m.keys.NextDay):
			return m, func() tea.Msg { return ShiftDayMsg{Days: 1} }
		case key.Matches(msg, m.keys.Today):
			return m, func() tea.Msg { return ShiftDayMsg{} }
		case key.Matches(msg, m.keys.Delete):
			if i, ok := m.list.SelectedItem().(Item); ok {
				return m, func() tea.Msg { return DeleteEntryMsg{Entry: i} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	entries := m.list.View()
	if len(m.list.Items()) == 0 {
		entries = mutedStyle.Render("\n  Nothing logged yet.\n  Press 'a' to add a meal, 'p' to analyze a photo or 't' to add a training.")
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.summary(), entries)
}

func (m Model) summary() string {
	t := m.log.Targets
	title := m.date
	if m.log.Weight != nil {
		title += "  ·  " + utils.FormatQuantity(*m.log.Weight) + " kg"
	}

	remaining := ledger.FormatRemaining(m.remaining)
	if m.remaining < 0 {
		remaining = overStyle.Render(remaining)
	}

	lines := []string{
		headerStyle.Render(title),
		m.row("Calories", m.totals.Calories, t.Calories, "kcal"),
		m.row("Protein", m.totals.Protein, t.Protein, "g"),
		m.row("Carbs", m.totals.Carbs, t.Carbs, "g"),
		m.row("Fat", m.totals.Fat, t.Fat, "g"),
		"",
		fmt.Sprintf("%s  %s", remaining, mutedStyle.Render("burned "+utils.FormatQuantity(m.burned)+" kcal")),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) row(label string, eaten, target float64, unit string) string {
	percent := 0.0
	if target > 0 {
		percent = min(1, eaten/target)
	}
	bar := m.bar
	bar.Width = max(10, min(40, m.width-40))
	return fmt.Sprintf("%s %s  %s / %s %s",
		labelStyle.Render(label), bar.ViewAs(percent),
		utils.FormatQuantity(eaten), utils.FormatQuantity(target), unit)
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.list.SetSize(width, max(0, height-summaryHeight))
}
