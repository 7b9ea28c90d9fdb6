package audio

import "context"

// Input delivers fixed-size frames of captured samples. onFrame is called
// from a single goroutine, in capture order, until Close.
type Input interface {
	Open(ctx context.Context, onFrame func([]float32)) error
	Close() error
}

// Source is a buffer scheduled on an Output.
type Source interface {
	// Stop silences the source immediately. Its ended callback does not fire.
	Stop()
	// StartTime is the clock time playback actually begins, which is later
	// than requested when the requested time had already passed.
	StartTime() float64
}

// Output plays buffers at positions on its own clock, in seconds since the
// output was opened.
type Output interface {
	CurrentTime() float64
	// Schedule plays buf starting at the given clock time. onEnded fires once
	// playback completes.
	Schedule(buf Buffer, at float64, onEnded func()) (Source, error)
	Close() error
}

// Failer is implemented by outputs that can break after opening, such as a
// player process that exits. Failed yields at most one error.
type Failer interface {
	Failed() <-chan error
}
