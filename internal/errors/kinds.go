package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure by how the application recovers from it.
type Kind int

const (
	KindUnknown Kind = iota
	// KindPersistence: storage corrupt or unavailable. Recovered locally.
	KindPersistence
	// KindAnalysis: meal image analysis failed. Shown inline, retryable.
	KindAnalysis
	// KindAdvice: advisory chat failed. Replaced by a fallback message.
	KindAdvice
	// KindMediaAccess: microphone or speaker unavailable.
	KindMediaAccess
	// KindTransport: streaming connection dropped or errored.
	KindTransport
	// KindConfiguration: a required credential or setting is missing.
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindPersistence:
		return "persistence"
	case KindAnalysis:
		return "analysis"
	case KindAdvice:
		return "advice"
	case KindMediaAccess:
		return "media access"
	case KindTransport:
		return "transport"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error is a classified application error. Message is safe to show to the
// user; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Sentinels for errors.Is matching on kind alone.
var (
	ErrPersistence   = &Error{Kind: KindPersistence}
	ErrAnalysis      = &Error{Kind: KindAnalysis}
	ErrAdvice        = &Error{Kind: KindAdvice}
	ErrMediaAccess   = &Error{Kind: KindMediaAccess}
	ErrTransport     = &Error{Kind: KindTransport}
	ErrConfiguration = &Error{Kind: KindConfiguration}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds a classified error.
func New(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: cause}
}

// Persistence wraps a storage failure.
func Persistence(op string, cause error) *Error {
	return New(KindPersistence, op, "storage unavailable", cause)
}

// Analysis wraps a meal analysis failure with a displayable message.
func Analysis(op, message string, cause error) *Error {
	return New(KindAnalysis, op, message, cause)
}

// Advice wraps an advisory chat failure with a displayable message.
func Advice(op, message string, cause error) *Error {
	return New(KindAdvice, op, message, cause)
}

// MediaAccess wraps an audio device failure with a hint for the user.
func MediaAccess(op, hint string, cause error) *Error {
	return New(KindMediaAccess, op, hint, cause)
}

// Transport wraps a streaming connection failure.
func Transport(op string, cause error) *Error {
	return New(KindTransport, op, "connection error", cause)
}

// Configuration reports a missing or invalid setting.
func Configuration(op, message string) *Error {
	return New(KindConfiguration, op, message, nil)
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage returns the displayable message of the first classified error
// in err's chain, or fallback when there is none.
func UserMessage(err error, fallback string) string {
	var e *Error
	if stderrors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
