package voice

import (
	"sync"

	"github.com/julianstephens/fitbuddy/internal/audio"
)

// Player schedules response audio back to back on an output. Buffers start
// at max(cursor, now) so consecutive fragments play without gaps, and a
// fragment arriving after the queue drained starts immediately.
type Player struct {
	out audio.Output

	mu      sync.Mutex
	cursor  float64
	sources map[*playing]struct{}
}

type playing struct {
	src audio.Source
}

func NewPlayer(out audio.Output) *Player {
	return &Player{
		out:     out,
		sources: make(map[*playing]struct{}),
	}
}

// Enqueue schedules buf after everything already queued and returns its
// start time on the output clock.
func (p *Player) Enqueue(buf audio.Buffer) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := &playing{}
	src, err := p.out.Schedule(buf, max(p.cursor, p.out.CurrentTime()), func() { p.finished(h) })
	if err != nil {
		return 0, err
	}
	// The output clock may have moved past the requested start.
	start := src.StartTime()
	h.src = src
	p.sources[h] = struct{}{}
	p.cursor = start + buf.Seconds()

	buffersScheduledCounter.Inc()
	pendingBuffersGauge.Inc()
	return start, nil
}

func (p *Player) finished(h *playing) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.sources[h]; ok {
		delete(p.sources, h)
		pendingBuffersGauge.Dec()
	}
}

// Interrupt stops and forgets every scheduled buffer and moves the cursor to
// now, so the next fragment does not wait behind the discarded backlog.
func (p *Player) Interrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopAllLocked()
	p.cursor = p.out.CurrentTime()
}

// Stop stops and forgets every scheduled buffer.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopAllLocked()
}

func (p *Player) stopAllLocked() {
	for h := range p.sources {
		h.src.Stop()
	}
	pendingBuffersGauge.Sub(float64(len(p.sources)))
	clear(p.sources)
}

// Pending is the number of buffers scheduled and not yet finished.
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sources)
}

// Cursor is the output time at which the next buffer would start if the
// output clock has not passed it.
func (p *Player) Cursor() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}
