package state

import (
	"github.com/julianstephens/fitbuddy/internal/logger"
)

// Refresh reloads the Today and Progress views from the ledger.
func (m *Model) Refresh() {
	if m.Ledger == nil {
		return
	}
	day := m.Ledger.GetLog(m.Day)
	m.TodayModel.SetDay(m.Ledger.DateKey(m.Day), day, m.Ledger.CaloriesBurned(m.Day), m.Day.Location())
	m.ProgressModel.SetHistory(m.Ledger.WeightHistory())
}

// RememberDay records the displayed day as the last viewed date.
func (m *Model) RememberDay() {
	if m.Ledger == nil {
		return
	}
	if err := m.Ledger.SetLastViewedDate(m.Day); err != nil {
		logger.Warn("failed to save last viewed date", "error", err)
	}
}
