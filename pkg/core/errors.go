package core

import (
	"errors"
	"strings"

	"github.com/ztrue/tracerr"
)

// Resolution and invocation errors
var (
	ErrUnknownType     = errors.New("backgrounder: unknown type")
	ErrUnknownMethod   = errors.New("backgrounder: undefined method")
	ErrArgumentCount   = errors.New("backgrounder: wrong number of arguments")
	ErrInvalidGlobalID = errors.New("backgrounder: invalid global id")
	ErrNotLocatable    = errors.New("backgrounder: global id cannot be located")
)

// Backend errors
var (
	ErrInvalidQueueName = errors.New("backgrounder: invalid queue name")
	ErrQueueNameTooLong = errors.New("backgrounder: queue name too long")
	ErrJobNotOwned      = errors.New("backgrounder: job not owned by this worker")
	ErrUnknownPool      = errors.New("backgrounder: unknown pool")
)

// Error is returned by Worker.Perform when an invoked method fails and the
// descriptor asks for failures to be raised. Message is the diagnostic text.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StackTrace returns the frames recorded on err or on an error it wraps,
// or nil when none were recorded.
func StackTrace(err error) []tracerr.Frame {
	var traced tracerr.Error
	if errors.As(err, &traced) {
		return traced.StackTrace()
	}
	return nil
}

// Sprint renders err's message followed by its recorded stack, one frame
// per line. Errors without a recorded stack render as their message.
func Sprint(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(err.Error())
	for _, f := range StackTrace(err) {
		b.WriteByte('\n')
		b.WriteString(f.String())
	}
	return b.String()
}
