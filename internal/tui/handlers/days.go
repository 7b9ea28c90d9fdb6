package handlers

import (
	"github.com/julianstephens/fitbuddy/internal/tui/state"
)

// ShiftDay moves the displayed day by days, or back to today when days is
// zero, and remembers the choice.
func ShiftDay(m *state.Model, days int) {
	if days == 0 {
		m.Day = m.Ledger.Today()
	} else {
		m.Day = m.Day.AddDate(0, 0, days)
	}
	m.Notice = ""
	m.Refresh()
	m.RememberDay()
}
