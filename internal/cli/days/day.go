package days

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/ledger"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/utils"
)

// out is where summaries are written. Replaced in tests.
var out io.Writer = os.Stdout

// DaySummary is the machine-readable form of a day.
type DaySummary struct {
	Date           string           `json:"date"`
	Log            models.DailyLog  `json:"log"`
	Totals         models.Nutrients `json:"totals"`
	CaloriesBurned float64          `json:"caloriesBurned"`
	Remaining      float64          `json:"remaining"`
}

type DayCmd struct {
	Date string `arg:"" optional:"" help:"Day to show (YYYY-MM-DD, 'today', 'yesterday' or an offset such as -1)."`
	JSON bool   `help:"Print the day as JSON."`
}

func (c *DayCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Date)
	if err != nil {
		return err
	}
	l, err := ctx.OpenLedger()
	if err != nil {
		return err
	}

	summary := DaySummary{
		Date:           l.DateKey(day),
		Log:            l.GetLog(day),
		Totals:         l.Totals(day),
		CaloriesBurned: l.CaloriesBurned(day),
		Remaining:      l.Remaining(day),
	}
	if c.JSON {
		return cli.PrintJSON(summary)
	}
	renderDay(out, summary, day.Location())
	return nil
}

func renderDay(w io.Writer, s DaySummary, loc *time.Location) {
	fmt.Fprintf(w, "%s\n\n", s.Date)

	t, g := s.Totals, s.Log.Targets
	fmt.Fprintf(w, "Calories  %s / %s kcal  (%s)\n", q(t.Calories), q(g.Calories), ledger.FormatRemaining(s.Remaining))
	fmt.Fprintf(w, "Protein   %s / %s g\n", q(t.Protein), q(g.Protein))
	fmt.Fprintf(w, "Carbs     %s / %s g\n", q(t.Carbs), q(g.Carbs))
	fmt.Fprintf(w, "Fat       %s / %s g\n", q(t.Fat), q(g.Fat))
	if s.Log.Weight != nil {
		fmt.Fprintf(w, "Weight    %s kg\n", q(*s.Log.Weight))
	}
	if s.CaloriesBurned > 0 {
		fmt.Fprintf(w, "Burned    %s kcal\n", q(s.CaloriesBurned))
	}

	fmt.Fprintln(w)
	if len(s.Log.Meals) == 0 {
		fmt.Fprintln(w, "No meals logged.")
	} else {
		fmt.Fprintln(w, "Meals:")
		for _, m := range s.Log.Meals {
			n := m.Nutrients
			fmt.Fprintf(w, "  %s  %s - %s kcal (P %sg, C %sg, F %sg)  [%s]\n",
				m.Timestamp.In(loc).Format("15:04"), m.Name, q(n.Calories), q(n.Protein), q(n.Carbs), q(n.Fat), m.ID)
		}
	}

	if len(s.Log.Trainings) > 0 {
		fmt.Fprintln(w, "Trainings:")
		for _, tr := range s.Log.Trainings {
			fmt.Fprintf(w, "  %s  %s - %s min, %s kcal  [%s]\n",
				tr.Timestamp.In(loc).Format("15:04"), tr.Name, q(tr.DurationMin), q(tr.CaloriesBurned), tr.ID)
		}
	}
}

func q(v float64) string {
	return utils.FormatQuantity(v)
}

type WeightSetCmd struct {
	Weight float64 `arg:"" help:"Body weight in kg."`
	Date   string  `short:"d" help:"Day to record the weight for."`
}

func (c *WeightSetCmd) Validate() error {
	if c.Weight <= 0 {
		return fmt.Errorf("weight must be greater than zero")
	}
	return nil
}

func (c *WeightSetCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Date)
	if err != nil {
		return err
	}
	lock, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer lock.Release()

	l, err := ctx.OpenLedger()
	if err != nil {
		return err
	}
	if err := l.SetWeight(day, c.Weight); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Weight for %s set to %s kg\n", l.DateKey(day), q(c.Weight))
	return nil
}

type WeightHistoryCmd struct {
	JSON bool `help:"Print the samples as JSON."`
}

func (c *WeightHistoryCmd) Run(ctx *cli.Context) error {
	l, err := ctx.OpenLedger()
	if err != nil {
		return err
	}
	samples := l.WeightHistory()
	if c.JSON {
		return cli.PrintJSON(samples)
	}
	renderWeightHistory(out, samples)
	return nil
}

func renderWeightHistory(w io.Writer, samples []models.WeightSample) {
	if len(samples) == 0 {
		fmt.Fprintln(w, "No weight recorded yet. Use 'fitbuddy weight set <kg>'.")
		return
	}
	for _, s := range samples {
		fmt.Fprintf(w, "  %s  %s kg\n", s.Date.Format("2006-01-02"), q(s.Weight))
	}

	trend, ok := ledger.Trend(samples)
	if !ok {
		fmt.Fprintln(w, "\nLog your weight for at least two different days to see a trend.")
		return
	}
	sign := ""
	if trend.Change > 0 {
		sign = "+"
	}
	fmt.Fprintf(w, "\nTrend: %s%.1f kg since %s (range %.1f-%.1f kg)\n",
		sign, trend.Change, trend.First.Date.Format("Jan 2"), trend.Min, trend.Max)
}

type TargetsSetCmd struct {
	Calories *float64 `short:"c" help:"Calorie target (kcal)."`
	Protein  *float64 `short:"p" help:"Protein target in grams."`
	Carbs    *float64 `help:"Carbohydrate target in grams."`
	Fat      *float64 `short:"f" help:"Fat target in grams."`
	Date     string   `short:"d" help:"Day to set targets for."`
}

func (c *TargetsSetCmd) Validate() error {
	var unset int
	for _, v := range []*float64{c.Calories, c.Protein, c.Carbs, c.Fat} {
		if v == nil {
			unset++
			continue
		}
		if *v < 0 {
			return fmt.Errorf("targets cannot be negative")
		}
	}
	if unset == 4 {
		return fmt.Errorf("set at least one of --calories, --protein, --carbs or --fat")
	}
	return nil
}

func (c *TargetsSetCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Date)
	if err != nil {
		return err
	}
	lock, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer lock.Release()

	l, err := ctx.OpenLedger()
	if err != nil {
		return err
	}

	// Unset flags keep the day's current values.
	targets := l.GetLog(day).Targets
	apply := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&targets.Calories, c.Calories)
	apply(&targets.Protein, c.Protein)
	apply(&targets.Carbs, c.Carbs)
	apply(&targets.Fat, c.Fat)

	if err := l.SetTargets(day, targets); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Targets for %s: %s\n", l.DateKey(day), strings.Join([]string{
		q(targets.Calories) + " kcal",
		q(targets.Protein) + "g protein",
		q(targets.Carbs) + "g carbs",
		q(targets.Fat) + "g fat",
	}, ", "))
	return nil
}
