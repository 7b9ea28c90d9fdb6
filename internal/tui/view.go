package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/fitbuddy/internal/constants"
)

var tabTitles = []string{"Today", "Progress", "Chat", "Live"}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var content string

	switch m.State {
	case constants.StateToday:
		content = docStyle.Render(m.TodayModel.View())
	case constants.StateProgress:
		content = docStyle.Render(m.ProgressModel.View())
	case constants.StateChat:
		content = docStyle.Render(m.ChatModel.View())
	case constants.StateLive:
		content = m.LiveModel.View()
	case constants.StateAddMeal, constants.StateAnalyzePhoto, constants.StateAddTraining,
		constants.StateSetWeight, constants.StateSetTargets:
		content = m.viewForm()
	case constants.StateAnalyzing:
		content = m.viewAnalyzing()
	case constants.StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewNotice(),
		content,
		m.Help.View(m),
	)
}

func (m Model) viewTabs() string {
	current := m.State
	if !m.IsTab() {
		current = m.PreviousState
	}
	var tabs []string
	for i, title := range tabTitles {
		if current == constants.SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewNotice() string {
	if m.Notice == "" {
		return ""
	}
	return noticeStyle.Render(m.Notice)
}

func (m Model) viewForm() string {
	if m.Form == nil {
		return ""
	}
	view := m.Form.View()
	if m.FormError != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, dangerStyle.Render(m.FormError), "", view)
	}
	return docStyle.Render(view)
}

func (m Model) viewAnalyzing() string {
	return lipgloss.Place(m.Width, max(0, m.Height-chromeHeight),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			warningStyle.Render("Analyzing photo..."),
			"",
			"[esc] Cancel",
		),
	)
}

func (m Model) viewConfirmDelete() string {
	name := ""
	if m.EntryToDelete != nil {
		name = m.EntryToDelete.FilterValue()
	}
	return lipgloss.Place(m.Width, max(0, m.Height-chromeHeight),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %q from %s?", name, m.Ledger.DateKey(m.Day))),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}
