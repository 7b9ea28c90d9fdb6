package errors

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      errors.New("something went wrong"),
			expected: "Error: something went wrong",
		},
		{
			name:     "classified error",
			err:      Persistence("ledger.add_meal", errors.New("disk full")),
			expected: "Error: ledger.add_meal: storage unavailable: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatConfigurationHint(t *testing.T) {
	got := Format(Configuration("gemini.new_client", "API key not found."))
	if !strings.HasPrefix(got, "Error: gemini.new_client: API key not found.") {
		t.Errorf("Format() = %q, want the error first", got)
	}
	if !strings.Contains(got, "fitbuddy key set") {
		t.Errorf("Format() = %q, want a hint naming the key command", got)
	}
}

// captureExit swaps the exit hooks for the duration of a test.
func captureExit(t *testing.T) (*bytes.Buffer, *int) {
	t.Helper()
	var buf bytes.Buffer
	code := -1
	prevErr, prevExit := stderr, exit
	stderr = &buf
	exit = func(c int) { code = c }
	t.Cleanup(func() {
		stderr, exit = prevErr, prevExit
	})
	return &buf, &code
}

func TestFatal(t *testing.T) {
	buf, code := captureExit(t)

	cleaned := false
	Fatal(errors.New("ledger write failed"), func() { cleaned = true })

	if *code != 1 {
		t.Errorf("Fatal() exit code = %d, want 1", *code)
	}
	if !cleaned {
		t.Error("Fatal() did not run cleanup")
	}
	if !strings.Contains(buf.String(), "Error: ledger write failed") {
		t.Errorf("Fatal() stderr = %q, want to contain %q", buf.String(), "Error: ledger write failed")
	}
}

func TestFatal_NilError(t *testing.T) {
	buf, code := captureExit(t)

	Fatal(nil, func() { t.Error("cleanup ran for a nil error") })

	if *code != -1 {
		t.Errorf("Fatal(nil) exited with %d", *code)
	}
	if buf.Len() != 0 {
		t.Errorf("Fatal(nil) wrote %q", buf.String())
	}
}
