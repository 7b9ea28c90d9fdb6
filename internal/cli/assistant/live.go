package assistant

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/fitbuddy/internal/cli"
	"github.com/julianstephens/fitbuddy/internal/voice"
)

// liveSession is the part of *voice.Session the live command drives.
type liveSession interface {
	Start(ctx context.Context)
	Stop()
	Wait()
	Updates() <-chan voice.Event
	State() voice.State
	Status() string
}

// newLiveSession is replaced in tests.
var newLiveSession = func(ctx *cli.Context) liveSession {
	return ctx.VoiceSession()
}

type LiveCmd struct {
	Quiet bool `short:"q" help:"Only print completed turns."`
}

func (c *LiveCmd) Run(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.run(sigCtx, newLiveSession(ctx))
}

func (c *LiveCmd) run(ctx context.Context, session liveSession) error {
	fmt.Fprintln(out, "Starting voice session. Press Ctrl+C to stop.")
	session.Start(ctx)
	defer session.Wait()

	p := &turnPrinter{quiet: c.Quiet}
	updates := session.Updates()
	for {
		select {
		case <-ctx.Done():
			session.Stop()
			fmt.Fprintln(out, "Stopped.")
			return nil
		case ev := <-updates:
			if done, err := p.print(ev); done {
				return err
			}
		}
	}
}

// turnPrinter writes session events as lines. Transcripts are printed once
// their turn completes.
type turnPrinter struct {
	quiet bool
	turn  voice.Transcript
}

// print writes one event and reports whether the session has ended.
func (p *turnPrinter) print(ev voice.Event) (bool, error) {
	switch ev.Kind {
	case voice.EventState:
		if !p.quiet {
			fmt.Fprintf(out, "[%s] %s\n", ev.State, ev.Status)
		}
	case voice.EventTranscript:
		p.turn = voice.Transcript{Input: ev.Input, Output: ev.Output}
	case voice.EventTurnComplete:
		p.flush()
	case voice.EventInterrupted:
		if !p.quiet {
			fmt.Fprintln(out, "  (interrupted)")
		}
	case voice.EventClosed:
		p.flush()
		fmt.Fprintln(out, ev.Status)
		return true, nil
	case voice.EventError:
		p.flush()
		fmt.Fprintf(out, "⚠ %s\n", ev.Status)
		return true, fmt.Errorf("voice session failed: %w", ev.Err)
	}
	return false, nil
}

func (p *turnPrinter) flush() {
	if p.turn.Input != "" {
		fmt.Fprintf(out, "You: %s\n", p.turn.Input)
	}
	if p.turn.Output != "" {
		fmt.Fprintf(out, "Assistant: %s\n", p.turn.Output)
	}
	p.turn.Clear()
}
