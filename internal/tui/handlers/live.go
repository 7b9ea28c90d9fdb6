package handlers

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/fitbuddy/internal/tui/state"
	"github.com/julianstephens/fitbuddy/internal/voice"
)

// VoiceEventMsg wraps one session event.
type VoiceEventMsg voice.Event

// WaitForVoiceEvent reads the next session event. Each handled event
// re-arms it, so exactly one read is outstanding.
func WaitForVoiceEvent(v state.VoiceSession) tea.Cmd {
	if v == nil {
		return nil
	}
	updates := v.Updates()
	return func() tea.Msg {
		ev, ok := <-updates
		if !ok {
			return nil
		}
		return VoiceEventMsg(ev)
	}
}

// HandleVoiceEvent applies ev to the Live tab.
func HandleVoiceEvent(m *state.Model, ev VoiceEventMsg) tea.Cmd {
	m.LiveModel.Apply(voice.Event(ev))
	return WaitForVoiceEvent(m.Voice)
}

// StartVoice begins a session. Progress arrives as VoiceEventMsg.
func StartVoice(m *state.Model) {
	if m.Voice == nil {
		return
	}
	m.Voice.Start(context.Background())
}

// StopVoice ends the session from any state.
func StopVoice(m *state.Model) {
	if m.Voice == nil {
		return
	}
	m.Voice.Stop()
}
