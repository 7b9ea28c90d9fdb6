package gemini

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
)

const groundedResponse = `{
  "candidates": [{
    "content": {"role": "model", "parts": [{"text": "Try Greek yogurt "}, {"text": "with berries."}]},
    "groundingMetadata": {
      "groundingChunks": [
        {"web": {"uri": "https://www.healthline.com/nutrition/greek-yogurt", "title": "Healthline"}},
        {"web": {"uri": "https://example.org/snacks"}},
        {"web": {"uri": "https://www.healthline.com/nutrition/greek-yogurt", "title": "dup"}},
        {"web": {"uri": "", "title": "no uri"}},
        {"retrievedContext": {"uri": "gs://bucket/doc"}}
      ]
    }
  }]
}`

func TestAdvise(t *testing.T) {
	t.Parallel()

	c, rec := newFakeAPI(t, http.StatusOK, groundedResponse)

	got, err := c.Advise(context.Background(), "What should I eat for a snack?")
	require.NoError(t, err)
	require.Equal(t, "Try Greek yogurt with berries.", got.Text)
	require.Len(t, got.Citations, 2)
	require.Equal(t, "Healthline", got.Citations[0].Label())
	require.Equal(t, "example.org", got.Citations[1].Label())

	require.Equal(t, "/v1beta/models/"+constants.DefaultAdviceModel+":generateContent", rec.Path)
	tools := rec.Body["tools"].([]any)
	require.Contains(t, tools[0].(map[string]any), "google_search")
}

func TestAdviseWithoutGrounding(t *testing.T) {
	t.Parallel()

	c, _ := newFakeAPI(t, http.StatusOK, candidateText("Drink water."))
	got, err := c.Advise(context.Background(), "tip?")
	require.NoError(t, err)
	require.Equal(t, "Drink water.", got.Text)
	require.Empty(t, got.Citations)
}

func TestAdviseFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		prompt string
	}{
		{"server error", http.StatusServiceUnavailable, `{}`, "hi"},
		{"empty answer", http.StatusOK, `{"candidates":[{"finishReason":"SAFETY"}]}`, "hi"},
		{"empty prompt", http.StatusOK, groundedResponse, "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newFakeAPI(t, tt.status, tt.body)
			_, err := c.Advise(context.Background(), tt.prompt)
			require.ErrorIs(t, err, errors.ErrAdvice)
		})
	}
}
