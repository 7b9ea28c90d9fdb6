package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorIsMatchesKind(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := fmt.Errorf("start session: %w", Transport("connect", cause))

	if !stderrors.Is(err, ErrTransport) {
		t.Error("expected wrapped transport error to match ErrTransport")
	}
	if stderrors.Is(err, ErrPersistence) {
		t.Error("transport error must not match ErrPersistence")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to remain reachable through Unwrap")
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"op and cause", Persistence("save", stderrors.New("disk full")), "save: storage unavailable: disk full"},
		{"message only", Configuration("", "API key not found."), "API key not found."},
		{"default message", &Error{Kind: KindAdvice}, "advice error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	err := fmt.Errorf("analyze: %w", Analysis("analyze meal", "Failed to analyze image. Please try again.", stderrors.New("bad json")))
	if got := UserMessage(err, "fallback"); got != "Failed to analyze image. Please try again." {
		t.Errorf("UserMessage() = %q", got)
	}
	if got := UserMessage(stderrors.New("plain"), "fallback"); got != "fallback" {
		t.Errorf("UserMessage() = %q, want fallback", got)
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(MediaAccess("mic", "no device", nil)) != KindMediaAccess {
		t.Error("KindOf() should report media access")
	}
	if KindOf(stderrors.New("x")) != KindUnknown {
		t.Error("KindOf() should report unknown for plain errors")
	}
}
