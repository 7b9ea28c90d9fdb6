package trainings

import (
	"fmt"
	"strings"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/utils"
)

type TrainingAddCmd struct {
	Name     string  `arg:"" help:"Training name, e.g. 'Morning run'."`
	Duration float64 `short:"m" help:"Duration in minutes." required:""`
	Calories float64 `short:"c" help:"Calories burned (kcal)." required:""`
	Date     string  `short:"d" help:"Day to log to (YYYY-MM-DD, 'today', 'yesterday' or an offset such as -1)."`
}

func (c *TrainingAddCmd) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("training name cannot be empty")
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be greater than zero")
	}
	if c.Calories <= 0 {
		return fmt.Errorf("calories burned must be greater than zero")
	}
	return nil
}

func (c *TrainingAddCmd) Run(ctx *cli.Context) error {
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
	training, err := l.AddTraining(day, models.TrainingDraft{
		Name:           strings.TrimSpace(c.Name),
		DurationMin:    c.Duration,
		CaloriesBurned: c.Calories,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Logged %s on %s: %s min, %s kcal burned (id %s)\n",
		training.Name, l.DateKey(day),
		utils.FormatQuantity(training.DurationMin), utils.FormatQuantity(training.CaloriesBurned), training.ID)
	fmt.Printf("  Burned today: %s kcal\n", utils.FormatQuantity(l.CaloriesBurned(day)))
	return nil
}

type TrainingDeleteCmd struct {
	ID   string `arg:"" help:"ID of the training session to remove."`
	Date string `short:"d" help:"Day the session was logged on."`
}

func (c *TrainingDeleteCmd) Run(ctx *cli.Context) error {
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
	removed, err := l.DeleteTraining(day, c.ID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("training %s not found on %s", c.ID, l.DateKey(day))
	}
	fmt.Printf("✓ Training %s removed from %s\n", c.ID, l.DateKey(day))
	return nil
}
