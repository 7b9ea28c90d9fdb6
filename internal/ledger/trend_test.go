package ledger

import (
	"math"
	"testing"
	"time"

	"github.com/julianstephens/fitbuddy/internal/models"
)

func TestTrend(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

	if _, ok := Trend(nil); ok {
		t.Error("Trend(nil) should report false")
	}
	if _, ok := Trend([]models.WeightSample{{Date: day(1), Weight: 80}}); ok {
		t.Error("Trend with one sample should report false")
	}

	trend, ok := Trend([]models.WeightSample{
		{Date: day(1), Weight: 80},
		{Date: day(3), Weight: 81.2},
		{Date: day(7), Weight: 78.5},
	})
	if !ok {
		t.Fatal("Trend with three samples should report true")
	}
	if trend.Min != 78.5 || trend.Max != 81.2 {
		t.Errorf("range = [%v, %v], want [78.5, 81.2]", trend.Min, trend.Max)
	}
	if math.Abs(trend.Change-(-1.5)) > 1e-9 {
		t.Errorf("Change = %v, want -1.5", trend.Change)
	}
	if !trend.First.Date.Equal(day(1)) || !trend.Last.Date.Equal(day(7)) {
		t.Errorf("endpoints = %v..%v", trend.First.Date, trend.Last.Date)
	}
}
