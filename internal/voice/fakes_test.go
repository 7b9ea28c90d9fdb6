package voice

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/julianstephens/fitbuddy/internal/audio"
)

type fakeStream struct {
	msgs   chan ServerMessage
	errs   chan error
	gate   chan struct{}
	closed chan struct{}

	mu   sync.Mutex
	sent []MediaChunk
	once sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		msgs:   make(chan ServerMessage, 16),
		errs:   make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (f *fakeStream) SendAudio(chunk MediaChunk) error {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-f.closed:
			return io.ErrClosedPipe
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, chunk)
	return nil
}

func (f *fakeStream) Recv() (ServerMessage, error) {
	select {
	case msg := <-f.msgs:
		return msg, nil
	case err := <-f.errs:
		return ServerMessage{}, err
	case <-f.closed:
		return ServerMessage{}, errors.New("use of closed connection")
	}
}

func (f *fakeStream) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeStream) Sent() []MediaChunk {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]MediaChunk(nil), f.sent...)
}

func (f *fakeStream) IsClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

type fakeTransport struct {
	mu       sync.Mutex
	connects int
	streams  []*fakeStream
	err      error
	// block makes Connect wait for its context.
	block bool
}

func (f *fakeTransport) Connect(ctx context.Context) (Stream, error) {
	f.mu.Lock()
	f.connects++
	block, err := f.block, f.err
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	stream := newFakeStream()
	f.mu.Lock()
	f.streams = append(f.streams, stream)
	f.mu.Unlock()
	return stream, nil
}

func (f *fakeTransport) Connects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects
}

func (f *fakeTransport) Last() *fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.streams) == 0 {
		return nil
	}
	return f.streams[len(f.streams)-1]
}

type fakeInput struct {
	mu      sync.Mutex
	onFrame func([]float32)
	openErr error
	closed  bool
}

func (f *fakeInput) Open(_ context.Context, onFrame func([]float32)) error {
	if f.openErr != nil {
		return f.openErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onFrame = onFrame
	return nil
}

func (f *fakeInput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeInput) Frame(samples []float32) {
	f.mu.Lock()
	fn := f.onFrame
	f.mu.Unlock()
	if fn != nil {
		fn(samples)
	}
}

func (f *fakeInput) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// fakeOutput is an Output with a manually advanced clock.
type fakeOutput struct {
	mu        sync.Mutex
	now       float64
	scheduled []*fakeSource
	closed    bool
}

type fakeSource struct {
	at      float64
	length  float64
	onEnded func()
	stopped bool
}

func (s *fakeSource) Stop() { s.stopped = true }

func (s *fakeSource) StartTime() float64 { return s.at }

func (f *fakeOutput) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeOutput) Schedule(buf audio.Buffer, at float64, onEnded func()) (audio.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, audio.ErrOutputClosed
	}
	src := &fakeSource{at: at, length: buf.Seconds(), onEnded: onEnded}
	f.scheduled = append(f.scheduled, src)
	return src, nil
}

func (f *fakeOutput) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeOutput) SetTime(now float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}

func (f *fakeOutput) Scheduled() []*fakeSource {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeSource(nil), f.scheduled...)
}

func (f *fakeOutput) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func seconds(s float64) audio.Buffer {
	return audio.Buffer{Samples: make([]float32, int(s*100)), SampleRate: 100}
}
