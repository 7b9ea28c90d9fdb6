package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/models"
)

// Advice is an assistant answer with the web sources it was grounded on.
type Advice struct {
	Text      string
	Citations []models.Citation
}

// Advise sends prompt to the advice model with web search grounding.
// Failures are advice errors; callers substitute a fallback message.
func (c *Client) Advise(ctx context.Context, prompt string) (Advice, error) {
	const op = "gemini.advise"
	if strings.TrimSpace(prompt) == "" {
		return Advice{}, errors.Advice(op, constants.AdviceFailedText, fmt.Errorf("empty prompt"))
	}

	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		Tools:    []map[string]any{{"google_search": map[string]any{}}},
	}
	body, err := c.generateContent(ctx, c.AdviceModel, req)
	if err != nil {
		c.log.Error("Advice request failed", "error", err)
		return Advice{}, errors.Advice(op, constants.AdviceFailedText, err)
	}

	advice := parseAdvice(body)
	if advice.Text == "" {
		err := fmt.Errorf("response has no text: %s", blockReason(body))
		c.log.Error("Advice response unusable", "error", err)
		return Advice{}, errors.Advice(op, constants.AdviceFailedText, err)
	}
	c.log.Debug("Advice received", "chars", len(advice.Text), "citations", len(advice.Citations))
	return advice, nil
}

// parseAdvice reads the answer text and grounding chunks. Chunks without a
// web URI are dropped and duplicate URIs are collapsed.
func parseAdvice(body []byte) Advice {
	advice := Advice{Text: strings.TrimSpace(responseText(body))}

	seen := map[string]bool{}
	gjson.GetBytes(body, "candidates.0.groundingMetadata.groundingChunks").ForEach(func(_, chunk gjson.Result) bool {
		web := chunk.Get("web")
		if !web.Exists() {
			return true
		}
		c := models.Citation{Web: &models.WebSource{
			URI:   strings.TrimSpace(web.Get("uri").String()),
			Title: strings.TrimSpace(web.Get("title").String()),
		}}
		if !c.Valid() || seen[c.Web.URI] {
			return true
		}
		seen[c.Web.URI] = true
		advice.Citations = append(advice.Citations, c)
		return true
	})
	return advice
}
