package handlers

import (
	"context"
	stderrors "errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/fitbuddy/internal/advisor"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/models"
	"github.com/julianstephens/fitbuddy/internal/tui/state"
)

// AnswerMsg carries the reply to a chat question.
type AnswerMsg struct {
	Reply models.ChatMessage
	Err   error
}

// Ask sends question with the displayed day's summary in the background.
func Ask(m *state.Model, question string) tea.Cmd {
	chat := m.Chat
	day := m.Ledger.GetLog(m.Day)
	totals := m.Ledger.Totals(m.Day)
	return func() tea.Msg {
		reply, err := chat.Ask(context.Background(), question, day, totals)
		return AnswerMsg{Reply: reply, Err: err}
	}
}

// HandleAnswer shows the updated transcript. Failed answers are already
// recorded as the fallback message.
func HandleAnswer(m *state.Model, msg AnswerMsg) {
	m.ChatModel.SetMessages(m.Chat.Messages())
	switch {
	case msg.Err == nil:
		m.Notice = ""
	case stderrors.Is(msg.Err, advisor.ErrEmptyQuestion), stderrors.Is(msg.Err, advisor.ErrBusy):
		m.Notice = msg.Err.Error()
	case errors.KindOf(msg.Err) == errors.KindConfiguration:
		m.Notice = errors.UserMessage(msg.Err, constants.StatusMissingKey)
	default:
		m.Notice = errors.UserMessage(msg.Err, constants.AdviceFailedText)
	}
}
