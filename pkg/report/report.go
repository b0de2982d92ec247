// Package report forwards failed invocations to an external error tracker.
package report

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sync"
)

// ErrorClass labels notices sent by the Worker.
const ErrorClass = "Backgrounder::Worker Error"

// Notice is one failed invocation sent to an error tracker.
type Notice struct {
	Message     string
	Fingerprint string
	Force       bool
	ErrorClass  string
}

// NewNotice builds the Worker's notice for a diagnostic message.
func NewNotice(message string) Notice {
	return Notice{
		Message:     message,
		Fingerprint: Fingerprint(message),
		Force:       true,
		ErrorClass:  ErrorClass,
	}
}

// Fingerprint groups identical diagnostics: the hex SHA-1 of the message.
func Fingerprint(message string) string {
	sum := sha1.Sum([]byte(message))
	return hex.EncodeToString(sum[:])
}

// Reporter sends notices to an error tracker.
type Reporter interface {
	Notify(ctx context.Context, n Notice) error
}

// Recorder is an in-memory Reporter for tests.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
	err     error
}

// NewRecorder creates a Recorder. A non-nil err is returned from every Notify
// after the notice is recorded.
func NewRecorder(err error) *Recorder {
	return &Recorder{err: err}
}

func (r *Recorder) Notify(_ context.Context, n Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return r.err
}

// Notices returns a copy of the recorded notices.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}
