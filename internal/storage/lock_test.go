package storage

import (
	"errors"
	"os"
	"strings"
	"testing"

	ps "github.com/mitchellh/go-ps"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int {
	return m.pid
}

func (m *mockProcess) PPid() int {
	return 0
}

func (m *mockProcess) Executable() string {
	return m.executable
}

// withProcesses replaces process lookup with a fixed table for the test.
func withProcesses(t *testing.T, self int, running map[int]string) {
	t.Helper()
	oldFind, oldPid := findProcessFunc, getpidFunc
	t.Cleanup(func() {
		findProcessFunc = oldFind
		getpidFunc = oldPid
	})
	getpidFunc = func() int { return self }
	findProcessFunc = func(pid int) (ps.Process, error) {
		exe, ok := running[pid]
		if !ok {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: exe}, nil
	}
}

func TestLockAcquireAndRelease(t *testing.T) {
	withProcesses(t, 100, map[int]string{100: "fitbuddy"})
	dir := t.TempDir()

	l := NewLock(dir, "fitbuddy.lock")
	if err := l.Acquire(); err != nil {
		t.Fatalf("Acquire() failed: %v", err)
	}

	content, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("lockfile not written: %v", err)
	}
	if string(content) != "100|fitbuddy" {
		t.Errorf("lockfile content = %q, want %q", content, "100|fitbuddy")
	}

	if err := l.Release(); err != nil {
		t.Fatalf("Release() failed: %v", err)
	}
	if _, err := os.Stat(l.Path()); !os.IsNotExist(err) {
		t.Error("lockfile should be removed after Release()")
	}
	if err := l.Release(); err != nil {
		t.Errorf("second Release() should be a no-op, got %v", err)
	}
}

func TestLockHeldByLiveProcess(t *testing.T) {
	withProcesses(t, 100, map[int]string{100: "fitbuddy", 200: "fitbuddy"})
	dir := t.TempDir()

	l := NewLock(dir, "fitbuddy.lock")
	if err := os.WriteFile(l.Path(), []byte("200|fitbuddy"), 0600); err != nil {
		t.Fatal(err)
	}

	err := l.Acquire()
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("Acquire() error = %v, want ErrLocked", err)
	}
	if !strings.Contains(err.Error(), "pid 200") {
		t.Errorf("error should name the owning pid, got %q", err)
	}
}

func TestLockReplacesStaleLock(t *testing.T) {
	tests := []struct {
		name    string
		content string
		running map[int]string
	}{
		{"dead process", "300|fitbuddy", map[int]string{100: "fitbuddy"}},
		{"recycled pid", "300|fitbuddy", map[int]string{100: "fitbuddy", 300: "postgres"}},
		{"malformed", "garbage", map[int]string{100: "fitbuddy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withProcesses(t, 100, tt.running)
			dir := t.TempDir()

			l := NewLock(dir, "fitbuddy.lock")
			if err := os.WriteFile(l.Path(), []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			if err := l.Acquire(); err != nil {
				t.Fatalf("Acquire() should replace a stale lock, got %v", err)
			}
			if pid, alive := l.Owner(); pid != 100 || !alive {
				t.Errorf("Owner() = (%d, %v), want (100, true)", pid, alive)
			}
		})
	}
}
