package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os/exec"
	"sync"
	"time"

	"github.com/julianstephens/fitbuddy/internal/logger"
)

// renderInterval is how often the mixer renders a block of output.
const renderInterval = 20 * time.Millisecond

// ErrOutputClosed is returned when scheduling on a closed output.
var ErrOutputClosed = errors.New("audio output closed")

// Mixer is a software Output. Scheduled buffers are summed into blocks of
// PCM16 written to a sink; its clock advances with the samples rendered.
type Mixer struct {
	rate int
	sink io.Writer

	mu       sync.Mutex
	pos      int64
	sources  map[*mixSource]struct{}
	closed   bool
	released bool

	stop    context.CancelFunc
	stopped chan struct{}
	onClose func() error
	failed  chan error
}

var (
	_ Output = (*Mixer)(nil)
	_ Failer = (*Mixer)(nil)
)

type mixSource struct {
	m       *Mixer
	samples []float32
	start   int64
	onEnded func()
}

// NewMixer returns a mixer writing to sink. It renders nothing until Start.
func NewMixer(rate int, sink io.Writer) *Mixer {
	return &Mixer{
		rate:    rate,
		sink:    sink,
		sources: make(map[*mixSource]struct{}),
		failed:  make(chan error, 1),
	}
}

// Start renders in real time until ctx ends or Close is called.
func (m *Mixer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.stop = cancel
	m.stopped = make(chan struct{})
	stopped := m.stopped
	m.mu.Unlock()

	go func() {
		defer close(stopped)
		log := logger.Component("mixer")
		ticker := time.NewTicker(renderInterval)
		defer ticker.Stop()
		began := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				target := int64(time.Since(began).Seconds() * float64(m.rate))
				m.mu.Lock()
				n := target - m.pos
				m.mu.Unlock()
				if n <= 0 {
					continue
				}
				if _, err := m.sink.Write(m.Render(int(n))); err != nil {
					log.Warn("Audio sink rejected output", "error", err)
					m.fail(fmt.Errorf("audio sink: %w", err))
					return
				}
			}
		}
	}()
}

func (m *Mixer) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.pos) / float64(m.rate)
}

// Failed delivers the error that stopped rendering. The mixer refuses new
// buffers once it fires.
func (m *Mixer) Failed() <-chan error {
	return m.failed
}

// fail stops accepting buffers, drops the scheduled ones and reports err.
func (m *Mixer) fail(err error) {
	m.mu.Lock()
	m.closed = true
	clear(m.sources)
	m.mu.Unlock()
	select {
	case m.failed <- err:
	default:
	}
}

// Schedule starts buf at clock time at. Times in the past play immediately;
// the returned source reports the start actually used.
func (m *Mixer) Schedule(buf Buffer, at float64, onEnded func()) (Source, error) {
	if buf.SampleRate != m.rate {
		return nil, fmt.Errorf("buffer rate %d does not match output rate %d", buf.SampleRate, m.rate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrOutputClosed
	}
	start := int64(math.Round(at * float64(m.rate)))
	if start < m.pos {
		start = m.pos
	}
	s := &mixSource{m: m, samples: buf.Samples, start: start, onEnded: onEnded}
	m.sources[s] = struct{}{}
	return s, nil
}

func (s *mixSource) StartTime() float64 {
	return float64(s.start) / float64(s.m.rate)
}

func (s *mixSource) Stop() {
	s.m.mu.Lock()
	delete(s.m.sources, s)
	s.m.mu.Unlock()
}

// Render mixes the next n samples as PCM16, advances the clock and fires the
// ended callbacks of sources that finished inside the block. Start calls it in
// real time; calling it directly drives the mixer offline.
func (m *Mixer) Render(n int) []byte {
	block := make([]float32, n)
	var ended []func()

	m.mu.Lock()
	from, to := m.pos, m.pos+int64(n)
	for s := range m.sources {
		end := s.start + int64(len(s.samples))
		lo, hi := max(s.start, from), min(end, to)
		for i := lo; i < hi; i++ {
			block[i-from] += s.samples[i-s.start]
		}
		if end <= to {
			delete(m.sources, s)
			if s.onEnded != nil {
				ended = append(ended, s.onEnded)
			}
		}
	}
	m.pos = to
	m.mu.Unlock()

	for _, fn := range ended {
		fn()
	}
	return FloatToPCM16(block)
}

// Pending is the number of sources scheduled and not yet finished.
func (m *Mixer) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sources)
}

// Close stops rendering, drops every scheduled source and releases the
// sink. Safe to call more than once.
func (m *Mixer) Close() error {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return nil
	}
	m.closed, m.released = true, true
	clear(m.sources)
	stop, stopped, onClose := m.stop, m.stopped, m.onClose
	m.mu.Unlock()

	if stop != nil {
		stop()
		<-stopped
	}
	if onClose != nil {
		return onClose()
	}
	return nil
}

// OpenCommandOutput starts an external player such as aplay reading raw
// S16_LE mono at rate from stdin, and returns a running mixer feeding it.
func OpenCommandOutput(ctx context.Context, command []string, rate int) (*Mixer, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("no playback command configured")
	}
	path, err := exec.LookPath(command[0])
	if err != nil {
		return nil, fmt.Errorf("playback command %q not found: %w", command[0], err)
	}

	cmd := exec.Command(path, command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("playback pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start playback: %w", err)
	}

	m := NewMixer(rate, stdin)
	m.onClose = func() error {
		stdin.Close()
		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(time.Second):
			_ = cmd.Process.Kill()
			<-done
		}
		return nil
	}
	m.Start(ctx)
	return m, nil
}
