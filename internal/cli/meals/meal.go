package meals

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/gemini"
	"github.com/julianstephens/fitbuddy/internal/ledger"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/utils"
)

// Analyzer estimates the nutrients of a meal photo.
type Analyzer interface {
	AnalyzeMeal(ctx context.Context, image []byte, mediaType string) (gemini.MealAnalysis, error)
}

// newAnalyzer is replaced in tests.
var newAnalyzer = func(ctx *cli.Context) (Analyzer, error) {
	client, err := ctx.GeminiClient()
	if err != nil {
		return nil, err
	}
	return client, nil
}

// runForm shows an interactive form. Replaced in tests.
var runForm = func(f *huh.Form) error {
	return f.Run()
}

type MealAddCmd struct {
	Name        string  `arg:"" optional:"" help:"Meal name. Optional when --photo is given."`
	Calories    float64 `short:"c" help:"Calories (kcal)."`
	Protein     float64 `short:"p" help:"Protein in grams."`
	Carbs       float64 `help:"Carbohydrates in grams."`
	Fat         float64 `short:"f" help:"Fat in grams."`
	Date        string  `short:"d" help:"Day to log to (YYYY-MM-DD, 'today', 'yesterday' or an offset such as -1)."`
	Photo       string  `type:"path" help:"Photo of the meal to estimate nutrients from."`
	Interactive bool    `short:"i" help:"Review the meal in a form before saving."`
}

func (c *MealAddCmd) Validate() error {
	if strings.TrimSpace(c.Name) == "" && c.Photo == "" && !c.Interactive {
		return fmt.Errorf("a meal name, --photo or --interactive is required")
	}
	if c.Calories < 0 || c.Protein < 0 || c.Carbs < 0 || c.Fat < 0 {
		return fmt.Errorf("nutrient values cannot be negative")
	}
	return nil
}

func (c *MealAddCmd) Run(ctx *cli.Context) error {
	day, err := ctx.ResolveDay(c.Date)
	if err != nil {
		return err
	}

	draft := models.MealDraft{
		Name: strings.TrimSpace(c.Name),
		Nutrients: models.Nutrients{
			Calories: c.Calories,
			Protein:  c.Protein,
			Carbs:    c.Carbs,
			Fat:      c.Fat,
		},
	}

	if c.Photo != "" {
		analysis, err := analyzePhoto(ctx, c.Photo)
		switch {
		case err == nil:
			draft = mergeAnalysis(draft, analysis, c.Photo)
			fmt.Printf("Estimated: %s\n", describe(draft))
		case draft.Name != "" || c.Interactive:
			// Manual entry is still possible.
			fmt.Printf("⚠ %s\n", errors.UserMessage(err, constants.AnalysisFailedText))
		default:
			return fmt.Errorf("%s Pass a meal name to log it manually", errors.UserMessage(err, constants.AnalysisFailedText))
		}
	}

	if c.Interactive {
		draft, err = reviewDraft(draft)
		if err != nil {
			return err
		}
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
	meal, err := l.AddMeal(day, draft)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Logged %s on %s (id %s)\n", describe(models.MealDraft{Name: meal.Name, Nutrients: meal.Nutrients}), l.DateKey(day), meal.ID)
	fmt.Printf("  Calories: %s\n", ledger.FormatRemaining(l.Remaining(day)))
	return nil
}

// mergeAnalysis fills the draft from the analysis. Values given on the
// command line win over estimates.
func mergeAnalysis(draft models.MealDraft, analysis gemini.MealAnalysis, photo string) models.MealDraft {
	ref, err := filepath.Abs(photo)
	if err != nil {
		ref = photo
	}
	est := analysis.Draft(ref)
	if draft.Name != "" {
		est.Name = draft.Name
	}
	if draft.Nutrients.Calories > 0 {
		est.Nutrients.Calories = draft.Nutrients.Calories
	}
	if draft.Nutrients.Protein > 0 {
		est.Nutrients.Protein = draft.Nutrients.Protein
	}
	if draft.Nutrients.Carbs > 0 {
		est.Nutrients.Carbs = draft.Nutrients.Carbs
	}
	if draft.Nutrients.Fat > 0 {
		est.Nutrients.Fat = draft.Nutrients.Fat
	}
	return est
}

func analyzePhoto(ctx *cli.Context, path string) (gemini.MealAnalysis, error) {
	image, mediaType, err := gemini.LoadImage(path)
	if err != nil {
		return gemini.MealAnalysis{}, errors.Analysis("meals.load_photo", err.Error(), err)
	}
	analyzer, err := newAnalyzer(ctx)
	if err != nil {
		return gemini.MealAnalysis{}, err
	}
	fmt.Println("Analyzing photo...")
	return analyzer.AnalyzeMeal(context.Background(), image, mediaType)
}

// mealForm holds the string values edited in the review form.
type mealForm struct {
	Name     string
	Calories string
	Protein  string
	Carbs    string
	Fat      string
}

func reviewDraft(draft models.MealDraft) (models.MealDraft, error) {
	fm := &mealForm{
		Name:     draft.Name,
		Calories: utils.FormatQuantity(draft.Nutrients.Calories),
		Protein:  utils.FormatQuantity(draft.Nutrients.Protein),
		Carbs:    utils.FormatQuantity(draft.Nutrients.Carbs),
		Fat:      utils.FormatQuantity(draft.Nutrients.Fat),
	}
	if err := runForm(newMealForm(fm)); err != nil {
		return models.MealDraft{}, fmt.Errorf("meal not saved: %w", err)
	}
	return fm.draft(draft.ImageURL)
}

func (fm *mealForm) draft(imageURL string) (models.MealDraft, error) {
	d := models.MealDraft{Name: strings.TrimSpace(fm.Name), ImageURL: imageURL}
	var err error
	for _, f := range []struct {
		raw string
		dst *float64
	}{
		{fm.Calories, &d.Nutrients.Calories},
		{fm.Protein, &d.Nutrients.Protein},
		{fm.Carbs, &d.Nutrients.Carbs},
		{fm.Fat, &d.Nutrients.Fat},
	} {
		if *f.dst, err = utils.ParseQuantity(f.raw); err != nil {
			return models.MealDraft{}, err
		}
	}
	return d, nil
}

func newMealForm(fm *mealForm) *huh.Form {
	quantity := func(s string) error {
		_, err := utils.ParseQuantity(s)
		return err
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Meal Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("meal name cannot be empty")
					}
					return nil
				}),
			huh.NewInput().Title("Calories (kcal)").Value(&fm.Calories).Validate(quantity),
			huh.NewInput().Title("Protein (g)").Value(&fm.Protein).Validate(quantity),
			huh.NewInput().Title("Carbs (g)").Value(&fm.Carbs).Validate(quantity),
			huh.NewInput().Title("Fat (g)").Value(&fm.Fat).Validate(quantity),
		),
	).WithTheme(huh.ThemeDracula())
}

func describe(d models.MealDraft) string {
	n := d.Nutrients
	return fmt.Sprintf("%s: %s kcal, %sg protein, %sg carbs, %sg fat", d.Name,
		utils.FormatQuantity(n.Calories), utils.FormatQuantity(n.Protein),
		utils.FormatQuantity(n.Carbs), utils.FormatQuantity(n.Fat))
}

type MealDeleteCmd struct {
	ID   string `arg:"" help:"ID of the meal to remove."`
	Date string `short:"d" help:"Day the meal was logged on."`
}

func (c *MealDeleteCmd) Run(ctx *cli.Context) error {
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
	removed, err := l.DeleteMeal(day, c.ID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("meal %s not found on %s", c.ID, l.DateKey(day))
	}
	fmt.Printf("✓ Meal %s removed from %s\n", c.ID, l.DateKey(day))
	return nil
}

type MealAnalyzeCmd struct {
	Photo string `arg:"" type:"existingfile" help:"Photo of the meal."`
	JSON  bool   `help:"Print the estimate as JSON."`
}

func (c *MealAnalyzeCmd) Run(ctx *cli.Context) error {
	analysis, err := analyzePhoto(ctx, c.Photo)
	if err != nil {
		return fmt.Errorf("%s", errors.UserMessage(err, constants.AnalysisFailedText))
	}
	draft := analysis.Draft("")
	if c.JSON {
		return cli.PrintJSON(map[string]any{
			"mealName": draft.Name,
			"calories": draft.Nutrients.Calories,
			"protein":  draft.Nutrients.Protein,
			"carbs":    draft.Nutrients.Carbs,
			"fat":      draft.Nutrients.Fat,
		})
	}
	fmt.Println(describe(draft))
	return nil
}
