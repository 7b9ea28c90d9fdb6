package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/models"
)

// MealAnalysis is the analyzer's estimate for one meal photo.
type MealAnalysis struct {
	Name      string
	Nutrients models.Nutrients
}

// Draft converts the analysis into a meal draft with nutrients rounded to
// whole numbers.
func (a MealAnalysis) Draft(imageURL string) models.MealDraft {
	return models.MealDraft{
		Name:      a.Name,
		Nutrients: a.Nutrients.Round(),
		ImageURL:  imageURL,
	}
}

var mealAnalysisSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"mealName": map[string]any{"type": "STRING", "description": "A short, descriptive name for the meal in the image."},
		"calories": map[string]any{"type": "NUMBER", "description": "Estimated number of calories in the meal."},
		"protein":  map[string]any{"type": "NUMBER", "description": "Estimated grams of protein in the meal."},
		"carbs":    map[string]any{"type": "NUMBER", "description": "Estimated grams of carbohydrates in the meal."},
		"fat":      map[string]any{"type": "NUMBER", "description": "Estimated grams of fat in the meal."},
	},
	"required": []string{"mealName", "calories", "protein", "carbs", "fat"},
}

// AnalyzeMeal estimates the name and nutrients of the meal in image.
// Failures are analysis errors carrying a displayable message.
func (c *Client) AnalyzeMeal(ctx context.Context, image []byte, mediaType string) (MealAnalysis, error) {
	const op = "gemini.analyze_meal"
	if len(image) == 0 {
		return MealAnalysis{}, errors.Analysis(op, constants.AnalysisFailedText, fmt.Errorf("empty image"))
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return MealAnalysis{}, errors.Analysis(op, constants.AnalysisFailedText, fmt.Errorf("unsupported media type %q", mediaType))
	}

	req := generateRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{MIMEType: mediaType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: constants.MealAnalysisPrompt},
			},
		}},
		GenerationConfig: map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   mealAnalysisSchema,
		},
	}

	body, err := c.generateContent(ctx, c.VisionModel, req)
	if err != nil {
		c.log.Error("Meal analysis request failed", "error", err)
		return MealAnalysis{}, errors.Analysis(op, constants.AnalysisFailedText, err)
	}

	analysis, err := parseMealAnalysis(body)
	if err != nil {
		c.log.Error("Meal analysis response unusable", "error", err)
		return MealAnalysis{}, errors.Analysis(op, constants.AnalysisFailedText, err)
	}
	c.log.Debug("Meal analyzed", "name", analysis.Name, "calories", analysis.Nutrients.Calories)
	return analysis, nil
}

// parseMealAnalysis extracts the structured answer from a generateContent
// response. Numbers may arrive as strings and are clamped to be non-negative.
func parseMealAnalysis(body []byte) (MealAnalysis, error) {
	text := strings.TrimSpace(responseText(body))
	if text == "" {
		return MealAnalysis{}, fmt.Errorf("response has no text: %s", blockReason(body))
	}
	text = stripCodeFence(text)
	if !gjson.Valid(text) {
		return MealAnalysis{}, fmt.Errorf("response text is not JSON")
	}

	result := gjson.Parse(text)
	name := strings.TrimSpace(result.Get("mealName").String())
	if name == "" {
		return MealAnalysis{}, fmt.Errorf("response is missing mealName")
	}
	for _, field := range []string{"calories", "protein", "carbs", "fat"} {
		if !result.Get(field).Exists() {
			return MealAnalysis{}, fmt.Errorf("response is missing %s", field)
		}
	}

	n := models.Nutrients{
		Calories: result.Get("calories").Float(),
		Protein:  result.Get("protein").Float(),
		Carbs:    result.Get("carbs").Float(),
		Fat:      result.Get("fat").Float(),
	}
	return MealAnalysis{Name: name, Nutrients: n.Clamp()}, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(body []byte) string {
	var sb strings.Builder
	gjson.GetBytes(body, "candidates.0.content.parts").ForEach(func(_, p gjson.Result) bool {
		if t := p.Get("text"); t.Exists() && !p.Get("thought").Bool() {
			sb.WriteString(t.String())
		}
		return true
	})
	return sb.String()
}

func blockReason(body []byte) string {
	if r := gjson.GetBytes(body, "promptFeedback.blockReason"); r.Exists() {
		return "blocked: " + r.String()
	}
	if r := gjson.GetBytes(body, "candidates.0.finishReason"); r.Exists() {
		return "finish reason " + r.String()
	}
	return "empty candidates"
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
