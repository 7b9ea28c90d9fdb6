// Package advisor keeps the advisory chat transcript and frames each
// question with the day's nutrition summary.
package advisor

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/gemini"
	"github.com/julianstephens/fitbuddy/internal/logger"
	"github.com/julianstephens/fitbuddy/internal/models"
)

var (
	ErrEmptyQuestion = stderrors.New("question is empty")
	ErrBusy          = stderrors.New("a question is already being answered")
)

// Client answers a fully framed prompt. *gemini.Client satisfies it.
type Client interface {
	Advise(ctx context.Context, prompt string) (gemini.Advice, error)
}

// Chat is an append-only advisory transcript. It is not persisted.
type Chat struct {
	client Client
	newID  func() string
	log    *log.Logger

	mu       sync.Mutex
	messages []models.ChatMessage
	busy     bool
}

// NewChat creates an empty transcript. A nil client is allowed; every
// question is then answered with the fallback message.
func NewChat(client Client) *Chat {
	return &Chat{
		client: client,
		newID:  uuid.NewString,
		log:    logger.Component("advisor"),
	}
}

// Ask records question, sends it with the day's summary and records the
// answer. When the client fails the fallback text is recorded and returned
// alongside the error, so callers can always show the returned message.
func (c *Chat) Ask(ctx context.Context, question string, day models.DailyLog, totals models.Nutrients) (models.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return models.ChatMessage{}, ErrEmptyQuestion
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return models.ChatMessage{}, ErrBusy
	}
	c.busy = true
	c.messages = append(c.messages, models.ChatMessage{
		ID:     c.newID(),
		Sender: models.SenderUser,
		Text:   question,
	})
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()
	}()

	reply, err := c.answer(ctx, ContextPrompt(totals, day.Targets, question))
	if err != nil {
		c.log.Warn("advice failed, using fallback", "error", err)
		reply = models.ChatMessage{
			ID:     c.newID(),
			Sender: models.SenderAssistant,
			Text:   constants.ChatFallbackText,
		}
	}

	c.mu.Lock()
	c.messages = append(c.messages, reply)
	c.mu.Unlock()
	return reply, err
}

func (c *Chat) answer(ctx context.Context, prompt string) (models.ChatMessage, error) {
	if c.client == nil {
		return models.ChatMessage{}, errors.Configuration("advisor.ask", constants.StatusMissingKey)
	}
	advice, err := c.client.Advise(ctx, prompt)
	if err != nil {
		return models.ChatMessage{}, err
	}
	return models.ChatMessage{
		ID:        c.newID(),
		Sender:    models.SenderAssistant,
		Text:      advice.Text,
		Citations: advice.Citations,
	}, nil
}

// Messages returns a copy of the transcript in order.
func (c *Chat) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.ChatMessage(nil), c.messages...)
}

// Busy reports whether a question is awaiting its answer.
func (c *Chat) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Reset clears the transcript.
func (c *Chat) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// ContextPrompt frames question with eaten/target figures for each nutrient
// and the calories remaining, floored at zero.
func ContextPrompt(totals, targets models.Nutrients, question string) string {
	remaining := math.Max(0, targets.Calories-totals.Calories)

	var b strings.Builder
	b.WriteString("My current daily nutrition summary is:\n")
	fmt.Fprintf(&b, "- Calories eaten: %s / %s\n", num(totals.Calories), num(targets.Calories))
	fmt.Fprintf(&b, "- Protein eaten: %sg / %sg\n", num(totals.Protein), num(targets.Protein))
	fmt.Fprintf(&b, "- Carbs eaten: %sg / %sg\n", num(totals.Carbs), num(targets.Carbs))
	fmt.Fprintf(&b, "- Fat eaten: %sg / %sg\n", num(totals.Fat), num(targets.Fat))
	fmt.Fprintf(&b, "- Calories remaining: %s\n", num(remaining))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Based on this, here is my question: %s", question)
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
