package progress

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/fitbuddy/internal/ledger"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/utils"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	sparkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	downStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	upStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// historyRows is how many recent readings are listed under the chart.
const historyRows = 14

type Model struct {
	samples  []models.WeightSample
	width    int
	height   int
	viewport viewport.Model
}

func New(samples []models.WeightSample, width, height int) Model {
	m := Model{
		samples:  samples,
		width:    width,
		height:   height,
		viewport: viewport.New(width, height),
	}
	m.updateViewportContent()
	return m
}

func (m *Model) SetHistory(samples []models.WeightSample) {
	m.samples = samples
	m.updateViewportContent()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.updateViewportContent()
}

func (m *Model) updateViewportContent() {
	sections := []string{titleStyle.Render("Weight")}

	trend, ok := ledger.Trend(m.samples)
	switch {
	case len(m.samples) == 0:
		sections = append(sections, emptyStyle.Render("No weight logged yet. Press 'w' on the Today tab to add one."))
	case !ok:
		s := m.samples[0]
		sections = append(sections,
			fmt.Sprintf("%s kg on %s", utils.FormatQuantity(s.Weight), s.Date.Format("Jan 2")),
			emptyStyle.Render("Log your weight on at least two different days to see a trend."))
	default:
		sections = append(sections,
			sparkStyle.Render(Sparkline(m.samples, max(8, m.width-4))),
			"",
			changeLine(trend),
			fmt.Sprintf("Range %s–%s kg", utils.FormatQuantity(trend.Min), utils.FormatQuantity(trend.Max)),
		)
	}

	if len(m.samples) > 1 {
		var rows []string
		start := max(0, len(m.samples)-historyRows)
		for i := len(m.samples) - 1; i >= start; i-- {
			s := m.samples[i]
			rows = append(rows, fmt.Sprintf("  %s  %s kg", s.Date.Format("Mon Jan 2"), utils.FormatQuantity(s.Weight)))
		}
		sections = append(sections, "", strings.Join(rows, "\n"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(lipgloss.NewStyle().Padding(0, 2).Render(content))
}

func changeLine(t ledger.WeightTrend) string {
	change := fmt.Sprintf("%+.1f kg since %s", t.Change, t.First.Date.Format("Jan 2"))
	switch {
	case t.Change < 0:
		return downStyle.Render(change)
	case t.Change > 0:
		return upStyle.Render(change)
	}
	return change
}

// Sparkline renders the most recent samples that fit in width, one rune per
// reading, scaled between the minimum and maximum shown.
func Sparkline(samples []models.WeightSample, width int) string {
	if width <= 0 || len(samples) == 0 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}
	lo, hi := samples[0].Weight, samples[0].Weight
	for _, s := range samples {
		lo = min(lo, s.Weight)
		hi = max(hi, s.Weight)
	}

	var b strings.Builder
	top := len(sparkLevels) - 1
	for _, s := range samples {
		level := top / 2
		if hi > lo {
			level = int((s.Weight - lo) / (hi - lo) * float64(top))
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}
