package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/julianstephens/fitbuddy/internal/models"
)

func samples(weights ...float64) []models.WeightSample {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.WeightSample, len(weights))
	for i, w := range weights {
		out[i] = models.WeightSample{Date: start.AddDate(0, 0, i), Weight: w}
	}
	return out
}

func TestSparkline(t *testing.T) {
	require.Equal(t, "▁█▄", Sparkline(samples(80, 82, 81), 10))
	require.Equal(t, "▄▄", Sparkline(samples(80, 80), 10))
	require.Equal(t, "█▁", Sparkline(samples(90, 82, 81), 2))
	require.Empty(t, Sparkline(nil, 10))
	require.Empty(t, Sparkline(samples(80), 0))
}

func TestViewStates(t *testing.T) {
	m := New(nil, 80, 30)
	require.Contains(t, m.View(), "No weight logged yet")

	m.SetHistory(samples(81.4))
	require.Contains(t, m.View(), "81.4 kg on Feb 1")
	require.Contains(t, m.View(), "at least two different days")

	m.SetHistory(samples(82, 81.5, 80.5))
	view := m.View()
	require.Contains(t, view, "-1.5 kg since Feb 1")
	require.Contains(t, view, "Range 80.5–82 kg")
	require.Contains(t, view, "Sat Feb 3  80.5 kg")
}

func TestViewWithoutSize(t *testing.T) {
	m := New(samples(80, 81), 0, 0)
	require.Empty(t, m.View())
}
