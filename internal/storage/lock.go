package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"
)

var (
	// ErrLocked is returned when another live process holds the data lock.
	ErrLocked = errors.New("data is locked by another running fitbuddy process")

	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// Lock is an advisory single-writer lock for a data location. The ledger
// rewrites its whole blob on each mutation, so two writers would silently
// drop each other's changes.
type Lock struct {
	path string
	held bool
}

func NewLock(dir, name string) *Lock {
	return &Lock{path: filepath.Join(dir, name)}
}

// Path returns the lockfile location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock. A lockfile left behind by a process that is no
// longer running is treated as stale and replaced.
func (l *Lock) Acquire() error {
	if l.held {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			exe := executableName()
			_, werr := fmt.Fprintf(f, "%d|%s", getpidFunc(), exe)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(l.path)
				return fmt.Errorf("failed to write lockfile: %v", errors.Join(werr, cerr))
			}
			l.held = true
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create lockfile: %w", err)
		}

		owner, alive := l.Owner()
		if alive {
			return fmt.Errorf("%w (pid %d)", ErrLocked, owner)
		}
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}
	return ErrLocked
}

// Owner reads the lockfile and reports the owning pid and whether that
// process is still running the same executable.
func (l *Lock) Owner() (int, bool) {
	content, err := os.ReadFile(l.path)
	if err != nil {
		return 0, false
	}
	parts := strings.SplitN(strings.TrimSpace(string(content)), "|", 2)
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return 0, false
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return pid, false
	}
	if len(parts) == 2 && parts[1] != "" && process.Executable() != parts[1] {
		// pid was recycled by an unrelated program
		return pid, false
	}
	return pid, true
}

// Release removes the lockfile if this Lock holds it.
func (l *Lock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}

func executableName() string {
	if p, err := findProcessFunc(getpidFunc()); err == nil && p != nil {
		return p.Executable()
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Base(exe)
}
