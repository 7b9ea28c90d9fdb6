package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/models"
)

func candidateText(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%s}]}}]}`, strconv.Quote(text))
}

func TestAnalyzeMeal(t *testing.T) {
	t.Parallel()

	c, rec := newFakeAPI(t, http.StatusOK, candidateText(`{"mealName":"Chicken salad","calories":452.6,"protein":38.2,"carbs":12,"fat":27.9}`))

	got, err := c.AnalyzeMeal(context.Background(), []byte{0xff, 0xd8, 0xff}, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "Chicken salad", got.Name)
	require.Equal(t, models.Nutrients{Calories: 452.6, Protein: 38.2, Carbs: 12, Fat: 27.9}, got.Nutrients)

	require.Equal(t, "/v1beta/models/"+constants.DefaultVisionModel+":generateContent", rec.Path)
	require.Equal(t, "demo", rec.APIKey)

	parts := rec.Body["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	inline := parts[0].(map[string]any)["inlineData"].(map[string]any)
	require.Equal(t, "image/jpeg", inline["mimeType"])
	require.Equal(t, "/9j/", inline["data"])
	require.Equal(t, constants.MealAnalysisPrompt, parts[1].(map[string]any)["text"])

	cfg := rec.Body["generationConfig"].(map[string]any)
	require.Equal(t, "application/json", cfg["responseMimeType"])
	require.NotNil(t, cfg["responseSchema"])
}

func TestAnalysisDraftRounds(t *testing.T) {
	t.Parallel()

	a := MealAnalysis{Name: "Bowl", Nutrients: models.Nutrients{Calories: 452.6, Protein: 38.2, Carbs: 12.5, Fat: 27.4}}
	d := a.Draft("img.jpg")
	require.Equal(t, models.Nutrients{Calories: 453, Protein: 38, Carbs: 13, Fat: 27}, d.Nutrients)
	require.Equal(t, "img.jpg", d.ImageURL)
}

func TestParseMealAnalysisLenient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want MealAnalysis
	}{
		{
			name: "numbers as strings",
			text: `{"mealName":"Oatmeal","calories":"310","protein":"11","carbs":"54","fat":"6"}`,
			want: MealAnalysis{Name: "Oatmeal", Nutrients: models.Nutrients{Calories: 310, Protein: 11, Carbs: 54, Fat: 6}},
		},
		{
			name: "negative values clamp to zero",
			text: `{"mealName":"Water","calories":-5,"protein":0,"carbs":-1,"fat":0}`,
			want: MealAnalysis{Name: "Water", Nutrients: models.Nutrients{}},
		},
		{
			name: "fenced json",
			text: "```json\n{\"mealName\":\"Toast\",\"calories\":120,\"protein\":4,\"carbs\":22,\"fat\":2}\n```",
			want: MealAnalysis{Name: "Toast", Nutrients: models.Nutrients{Calories: 120, Protein: 4, Carbs: 22, Fat: 2}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMealAnalysis([]byte(candidateText(tt.text)))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseMealAnalysisRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"no candidates", `{"promptFeedback":{"blockReason":"SAFETY"}}`},
		{"not json", candidateText("a plate of pasta")},
		{"missing name", candidateText(`{"calories":1,"protein":1,"carbs":1,"fat":1}`)},
		{"missing fat", candidateText(`{"mealName":"x","calories":1,"protein":1,"carbs":1}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMealAnalysis([]byte(tt.body))
			require.Error(t, err)
		})
	}
}

func TestAnalyzeMealFailureIsAnalysisError(t *testing.T) {
	t.Parallel()

	c, _ := newFakeAPI(t, http.StatusInternalServerError, `{}`)
	_, err := c.AnalyzeMeal(context.Background(), []byte{1}, "image/png")
	require.ErrorIs(t, err, errors.ErrAnalysis)
	require.Equal(t, constants.AnalysisFailedText, errors.UserMessage(err, ""))
}

func TestAnalyzeMealValidatesInput(t *testing.T) {
	t.Parallel()

	c, _ := newFakeAPI(t, http.StatusOK, `{}`)
	_, err := c.AnalyzeMeal(context.Background(), nil, "image/png")
	require.ErrorIs(t, err, errors.ErrAnalysis)
	_, err = c.AnalyzeMeal(context.Background(), []byte{1}, "text/plain")
	require.ErrorIs(t, err, errors.ErrAnalysis)
}
