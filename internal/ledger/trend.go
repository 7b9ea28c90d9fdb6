package ledger

import "github.com/julianstephens/fitbuddy/internal/models"

// WeightTrend summarizes a weight history.
type WeightTrend struct {
	First  models.WeightSample
	Last   models.WeightSample
	Min    float64
	Max    float64
	Change float64
}

// Trend summarizes samples ordered oldest first. It reports false for
// fewer than two samples.
func Trend(samples []models.WeightSample) (WeightTrend, bool) {
	if len(samples) < 2 {
		return WeightTrend{}, false
	}
	t := WeightTrend{
		First: samples[0],
		Last:  samples[len(samples)-1],
		Min:   samples[0].Weight,
		Max:   samples[0].Weight,
	}
	for _, s := range samples[1:] {
		t.Min = min(t.Min, s.Weight)
		t.Max = max(t.Max, s.Weight)
	}
	t.Change = t.Last.Weight - t.First.Weight
	return t, true
}
