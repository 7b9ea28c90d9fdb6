// Package voice runs a realtime spoken conversation: microphone frames go
// out to the voice service while transcripts and response audio come back
// and are played gaplessly.
package voice

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/fitbuddy/internal/audio"
	"github.com/julianstephens/fitbuddy/internal/constants"
	"github.com/julianstephens/fitbuddy/internal/errors"
	"github.com/julianstephens/fitbuddy/internal/logger"
)

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateActive
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventKind identifies what an Event reports.
type EventKind int

const (
	// EventState reports a state transition. Status carries the new status line.
	EventState EventKind = iota
	// EventTranscript reports a new input or output transcript fragment.
	EventTranscript
	// EventTurnComplete reports the end of a model turn. Both transcripts are cleared.
	EventTurnComplete
	// EventAudio reports a response fragment scheduled for playback.
	EventAudio
	// EventInterrupted reports that the user spoke over the model and playback was cut.
	EventInterrupted
	// EventClosed reports a normal shutdown.
	EventClosed
	// EventError reports a failure. Err is set and Status is the user-facing hint.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventTranscript:
		return "transcript"
	case EventTurnComplete:
		return "turn-complete"
	case EventAudio:
		return "audio"
	case EventInterrupted:
		return "interrupted"
	case EventClosed:
		return "closed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one update from a Session. Input and Output are the accumulated
// transcripts at the time the event was emitted.
type Event struct {
	Kind   EventKind
	State  State
	Status string
	Input  string
	Output string
	Err    error
}

// Config wires a Session to its collaborators. A nil Transport means no
// credential was configured; Start then fails with a missing-key status.
type Config struct {
	Transport Transport
	// NewInput and NewOutput open the capture and playback devices for one
	// session. Each is called once per Start.
	NewInput  func() (audio.Input, error)
	NewOutput func(ctx context.Context) (audio.Output, error)
	// ConnectTimeout bounds the handshake. Zero means no limit.
	ConnectTimeout time.Duration
	// SendQueue is the number of captured frames buffered ahead of the
	// network. Frames beyond it are dropped so capture never blocks.
	SendQueue int
	// EventBuffer is the capacity of the Updates channel.
	EventBuffer int
	MIMEType    string
}

const (
	defaultSendQueue   = 32
	defaultEventBuffer = 256
)

// Session is a restartable realtime voice conversation.
type Session struct {
	cfg     Config
	log     *log.Logger
	updates chan Event

	mu         sync.Mutex
	gen        uint64
	state      State
	status     string
	transcript Transcript
	cancel     context.CancelFunc
	input      audio.Input
	output     audio.Output
	stream     Stream
	player     *Player
	done       chan struct{}
}

func NewSession(cfg Config) *Session {
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = defaultSendQueue
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}
	if cfg.MIMEType == "" {
		cfg.MIMEType = constants.InputMIMEType
	}
	return &Session{
		cfg:     cfg,
		log:     logger.Component("voice"),
		updates: make(chan Event, cfg.EventBuffer),
		state:   StateIdle,
	}
}

// Updates delivers session events. Events are dropped when the consumer
// falls behind; State, Status and Transcript always hold the latest values.
func (s *Session) Updates() <-chan Event {
	return s.updates
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Transcript() Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript
}

// Start begins connecting in the background. It does nothing while a session
// is already connecting or active. ctx bounds the whole session; cancelling
// it has the same effect as Stop.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state == StateConnecting || s.state == StateActive {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateConnecting
	s.status = constants.StatusConnecting
	s.transcript.Clear()
	s.done = make(chan struct{})
	done := s.done
	ev := s.eventLocked(EventState, nil)
	s.mu.Unlock()

	s.emit(ev)
	go func() {
		defer close(done)
		s.run(runCtx, gen)
	}()
}

// Stop shuts the session down from any state. It is safe to call
// repeatedly and while connecting.
func (s *Session) Stop() {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	s.shutdown(gen, StateClosed, constants.StatusClosed, nil)
}

// Wait blocks until the background goroutine of the current session exits.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Session) run(ctx context.Context, gen uint64) {
	const op = "voice.start"

	stop := context.AfterFunc(ctx, func() {
		s.shutdown(gen, StateClosed, constants.StatusClosed, nil)
	})
	defer stop()

	if s.cfg.Transport == nil {
		s.fail(gen, constants.StatusMissingKey, errors.Configuration(op, constants.StatusMissingKey))
		return
	}
	if s.cfg.NewInput == nil || s.cfg.NewOutput == nil {
		s.fail(gen, constants.StatusStartFailed,
			errors.MediaAccess(op, constants.StatusStartFailed, stderrors.New("no audio devices configured")))
		return
	}

	out, err := s.cfg.NewOutput(ctx)
	if err != nil {
		s.fail(gen, constants.StatusStartFailed, errors.MediaAccess(op, constants.StatusStartFailed, err))
		return
	}
	if !s.attach(gen, StateConnecting, func() { s.output = out }) {
		_ = out.Close()
		return
	}
	if f, ok := out.(audio.Failer); ok {
		go s.watchOutput(ctx, gen, f)
	}

	connectCtx := ctx
	if s.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		defer cancel()
	}
	stream, err := s.cfg.Transport.Connect(connectCtx)
	if err != nil {
		if ctx.Err() != nil {
			// Stopped while connecting.
			s.shutdown(gen, StateClosed, constants.StatusClosed, nil)
			return
		}
		s.fail(gen, constants.StatusConnectionFail, errors.Transport(op, err))
		return
	}

	player := NewPlayer(out)
	if !s.attach(gen, StateConnecting, func() {
		s.stream = stream
		s.player = player
	}) {
		_ = stream.Close()
		return
	}

	in, err := s.cfg.NewInput()
	if err != nil {
		s.fail(gen, constants.StatusStartFailed, errors.MediaAccess(op, constants.StatusStartFailed, err))
		return
	}
	if !s.attach(gen, StateConnecting, func() { s.input = in }) {
		_ = in.Close()
		return
	}

	frames := make(chan MediaChunk, s.cfg.SendQueue)
	go s.send(ctx, gen, stream, frames)

	err = in.Open(ctx, func(samples []float32) {
		chunk := MediaChunk{Data: audio.EncodeFrame(samples), MIMEType: s.cfg.MIMEType}
		select {
		case frames <- chunk:
		default:
			framesDroppedCounter.Inc()
		}
	})
	if err != nil {
		s.fail(gen, constants.StatusStartFailed, errors.MediaAccess(op, constants.StatusStartFailed, err))
		return
	}

	s.mu.Lock()
	if s.gen != gen || s.state != StateConnecting {
		s.mu.Unlock()
		return
	}
	s.state = StateActive
	s.status = constants.StatusListening
	ev := s.eventLocked(EventState, nil)
	s.mu.Unlock()
	s.emit(ev)
	s.log.Debug("voice session active")

	s.receive(ctx, gen, stream, player)
}

// watchOutput fails the session when the playback device breaks.
func (s *Session) watchOutput(ctx context.Context, gen uint64, f audio.Failer) {
	select {
	case err := <-f.Failed():
		s.fail(gen, constants.StatusPlaybackFailed, errors.MediaAccess("voice.play", constants.StatusPlaybackFailed, err))
	case <-ctx.Done():
	}
}

// attach runs fn under the session lock if gen is still current and in the
// wanted state. It reports false when the session moved on, in which case the
// caller owns and must release whatever it was about to hand over.
func (s *Session) attach(gen uint64, want State, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != want {
		return false
	}
	fn()
	return true
}

// send forwards captured frames in capture order.
func (s *Session) send(ctx context.Context, gen uint64, stream Stream, frames <-chan MediaChunk) {
	for {
		select {
		case <-ctx.Done():
			return
		case chunk := <-frames:
			if err := stream.SendAudio(chunk); err != nil {
				if ctx.Err() != nil {
					return
				}
				s.fail(gen, constants.StatusConnectionFail, errors.Transport("voice.send", err))
				return
			}
			framesSentCounter.Inc()
		}
	}
}

func (s *Session) receive(ctx context.Context, gen uint64, stream Stream, player *Player) {
	for {
		msg, err := stream.Recv()
		if err != nil {
			switch {
			case ctx.Err() != nil:
				s.shutdown(gen, StateClosed, constants.StatusClosed, nil)
			case stderrors.Is(err, io.EOF):
				s.shutdown(gen, StateClosed, constants.StatusClosed, nil)
			default:
				s.fail(gen, constants.StatusConnectionFail, errors.Transport("voice.receive", err))
			}
			return
		}
		if !s.handle(gen, msg, player) {
			return
		}
	}
}

// handle applies one server message. It reports false once the session is
// no longer current.
func (s *Session) handle(gen uint64, msg ServerMessage, player *Player) bool {
	if msg.InputTranscript != "" || msg.OutputTranscript != "" {
		ev, ok := s.update(gen, EventTranscript, func(t *Transcript) {
			t.AppendInput(msg.InputTranscript)
			t.AppendOutput(msg.OutputTranscript)
		})
		if !ok {
			return false
		}
		s.emit(ev)
	}

	if msg.TurnComplete {
		ev, ok := s.update(gen, EventTurnComplete, (*Transcript).Clear)
		if !ok {
			return false
		}
		s.emit(ev)
	}

	for _, fragment := range msg.Audio {
		buf, err := audio.DecodeFragment(fragment, constants.OutputSampleRate)
		if err != nil {
			s.log.Warn("skipping undecodable audio fragment", "error", err)
			continue
		}
		if len(buf.Samples) == 0 {
			continue
		}
		if _, err := player.Enqueue(buf); err != nil {
			if stderrors.Is(err, audio.ErrOutputClosed) {
				return false
			}
			s.log.Warn("failed to schedule audio", "error", err)
			continue
		}
		ev, ok := s.update(gen, EventAudio, nil)
		if !ok {
			return false
		}
		s.emit(ev)
	}

	if msg.Interrupted {
		player.Interrupt()
		interruptionsCounter.Inc()
		ev, ok := s.update(gen, EventInterrupted, nil)
		if !ok {
			return false
		}
		s.emit(ev)
	}
	return true
}

// update mutates the transcript of an active session and snapshots an event.
func (s *Session) update(gen uint64, kind EventKind, fn func(*Transcript)) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen || s.state != StateActive {
		return Event{}, false
	}
	if fn != nil {
		fn(&s.transcript)
	}
	return s.eventLocked(kind, nil), true
}

func (s *Session) fail(gen uint64, status string, err error) {
	s.log.Error("voice session failed", "error", err)
	s.shutdown(gen, StateFailed, status, err)
}

// shutdown releases everything the session holds and moves it to final.
// Only the first call for a generation has any effect.
func (s *Session) shutdown(gen uint64, final State, status string, cause error) {
	s.mu.Lock()
	if s.gen != gen || (s.state != StateConnecting && s.state != StateActive) {
		s.mu.Unlock()
		return
	}
	s.state = final
	s.status = status
	cancel, in, stream, player, out := s.cancel, s.input, s.stream, s.player, s.output
	s.cancel, s.input, s.stream, s.player, s.output = nil, nil, nil, nil, nil
	stateEv := s.eventLocked(EventState, cause)
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if in != nil {
		if err := in.Close(); err != nil {
			s.log.Debug("closing microphone", "error", err)
		}
	}
	if stream != nil {
		if err := stream.Close(); err != nil {
			s.log.Debug("closing stream", "error", err)
		}
	}
	if player != nil {
		player.Stop()
	}
	if out != nil {
		if err := out.Close(); err != nil {
			s.log.Debug("closing speaker", "error", err)
		}
	}

	sessionsCounter.WithLabelValues(final.String()).Inc()
	s.emit(stateEv)
	doneEv := stateEv
	doneEv.Kind = EventClosed
	if final == StateFailed {
		doneEv.Kind = EventError
	}
	s.emit(doneEv)
}

func (s *Session) eventLocked(kind EventKind, err error) Event {
	return Event{
		Kind:   kind,
		State:  s.state,
		Status: s.status,
		Input:  s.transcript.Input,
		Output: s.transcript.Output,
		Err:    err,
	}
}

func (s *Session) emit(ev Event) {
	select {
	case s.updates <- ev:
	default:
		s.log.Debug("dropping voice event", "kind", ev.Kind)
	}
}
