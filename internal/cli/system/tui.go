package system

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/fitbuddy/internal/advisor"
	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/logger"
	"github.com/julianstephens/fitbuddy/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	lock, err := ctx.Lock()
	if err != nil {
		return err
	}
	defer lock.Release()

	// Perform automatic backup on TUI startup (after successful load)
	ctx.PerformAutomaticBackup()

	l, err := ctx.OpenLedger()
	if err != nil {
		return err
	}

	session := ctx.VoiceSession()
	defer session.Stop()

	opts := tui.Options{
		Ledger: l,
		Voice:  session,
	}
	// Without a key the Chat tab and photo analysis report the missing
	// credential instead of blocking startup.
	if client, err := ctx.GeminiClient(); err == nil {
		opts.Analyzer = client
		opts.Chat = advisor.NewChat(client)
	} else {
		logger.Warn("AI features unavailable", "error", err)
		opts.AIError = err
	}

	p := tea.NewProgram(tui.NewModel(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
