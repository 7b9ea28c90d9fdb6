package errors

import (
	"fmt"
	"io"
	"os"

	"github.com/julianstephens/fitbuddy/internal/logger"
)

// Format renders err for the terminal. A configuration error also names the
// command that fixes it.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if KindOf(err) == KindConfiguration {
		msg += "\nHint: store a key with `fitbuddy key set` or set FITBUDDY_API_KEY."
	}
	return msg
}

var (
	stderr io.Writer = os.Stderr
	exit             = os.Exit
)

// Fatal logs err, prints it and exits with status 1. cleanup runs before
// exiting since deferred calls are skipped by os.Exit. A nil err is a no-op.
func Fatal(err error, cleanup ...func()) {
	if err == nil {
		return
	}
	logger.Error("Command execution failed", "kind", KindOf(err), "error", err)
	for _, fn := range cleanup {
		fn()
	}
	fmt.Fprintln(stderr, Format(err))
	exit(1)
}
