package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/julianstephens/fitbuddy/internal/logger"
)

// CommandMicrophone captures raw S16_LE mono audio from the stdout of an
// external recorder such as arecord.
type CommandMicrophone struct {
	Command   []string
	FrameSize int

	mu     sync.Mutex
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Input = (*CommandMicrophone)(nil)

// NewCommandMicrophone returns a microphone that runs command and cuts its
// output into frames of frameSize samples.
func NewCommandMicrophone(command []string, frameSize int) *CommandMicrophone {
	return &CommandMicrophone{Command: command, FrameSize: frameSize}
}

// ErrAlreadyOpen is returned by Open on a microphone that is capturing.
var ErrAlreadyOpen = errors.New("microphone already open")

func (m *CommandMicrophone) Open(ctx context.Context, onFrame func([]float32)) error {
	if len(m.Command) == 0 {
		return fmt.Errorf("no capture command configured")
	}
	if m.FrameSize <= 0 {
		return fmt.Errorf("frame size must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cmd != nil {
		return ErrAlreadyOpen
	}

	path, err := exec.LookPath(m.Command[0])
	if err != nil {
		return fmt.Errorf("capture command %q not found: %w", m.Command[0], err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, path, m.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start capture: %w", err)
	}

	m.cmd = cmd
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.read(stdout, onFrame, m.done)
	return nil
}

func (m *CommandMicrophone) read(r io.Reader, onFrame func([]float32), done chan struct{}) {
	defer close(done)
	log := logger.Component("microphone")
	buf := make([]byte, m.FrameSize*2)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.ErrClosedPipe) {
				log.Debug("Capture stream ended", "error", err)
			}
			return
		}
		onFrame(PCM16ToFloat(buf))
	}
}

// Close stops the recorder and waits for the frame reader to exit.
func (m *CommandMicrophone) Close() error {
	m.mu.Lock()
	cmd, cancel, done := m.cmd, m.cancel, m.done
	m.cmd, m.cancel, m.done = nil, nil, nil
	m.mu.Unlock()

	if cmd == nil {
		return nil
	}
	cancel()
	<-done
	// Killed by cancel; the exit status carries no information.
	_ = cmd.Wait()
	return nil
}
