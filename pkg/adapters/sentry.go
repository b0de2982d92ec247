package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/jdziat/backgrounder/pkg/report"
)

// SentryFlushTimeout bounds the wait for forced notices to be delivered.
const SentryFlushTimeout = 2 * time.Second

// SentryReporter sends notices to Sentry.
type SentryReporter struct {
	hub *sentry.Hub
}

// NewSentryReporter creates a reporter with its own client and hub, leaving
// the global Sentry hub untouched.
func NewSentryReporter(opts sentry.ClientOptions) (*SentryReporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}
	return &SentryReporter{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// NewSentryReporterFromDSN is NewSentryReporter with only a DSN and an
// environment name.
func NewSentryReporterFromDSN(dsn, env string) (*SentryReporter, error) {
	return NewSentryReporter(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
	})
}

// Notify implements report.Reporter. Forced notices are flushed before
// returning.
func (r *SentryReporter) Notify(ctx context.Context, n report.Notice) error {
	hub := r.hub
	if ctxHub := sentry.GetHubFromContext(ctx); ctxHub != nil && ctxHub.Client() == r.hub.Client() {
		hub = ctxHub
	}

	hub.CaptureEvent(buildEvent(n))
	if n.Force && !hub.Flush(SentryFlushTimeout) {
		return errors.New("sentry: flush timed out")
	}
	return nil
}

func buildEvent(n report.Notice) *sentry.Event {
	event := sentry.NewEvent()
	event.Level = sentry.LevelError
	event.Message = n.Message
	event.Exception = []sentry.Exception{{
		Type:  n.ErrorClass,
		Value: n.Message,
	}}
	if n.Fingerprint != "" {
		event.Fingerprint = []string{n.Fingerprint}
	}
	event.Tags = map[string]string{"error_class": n.ErrorClass}
	return event
}
