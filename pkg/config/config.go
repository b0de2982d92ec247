// Package config holds the process-wide settings read by every dispatch.
package config

import (
	"github.com/sirupsen/logrus"

	"github.com/jdziat/backgrounder/pkg/core"
)

// Configuration is the adapter's settings. Build it once at startup with
// New or Configure, hand it to the Dispatcher and Worker constructors, and
// do not mutate it after the first dispatch.
type Configuration struct {
	// Logger receives debug, info and error lines. Nil means logrus.StandardLogger().
	Logger logrus.FieldLogger

	// Queue is the default destination queue.
	Queue string

	// Retry is the default retry policy.
	Retry core.Retry

	// Backtrace controls whether backends keep stack traces of failed jobs.
	Backtrace bool

	// UseErrorReporting forwards failures to the Worker's Reporter.
	UseErrorReporting bool

	// Pool optionally names the connection pool the backend should use.
	Pool string
}

// New returns a Configuration with the default settings.
func New() *Configuration {
	return &Configuration{
		Logger:    logrus.StandardLogger(),
		Queue:     "default",
		Retry:     core.RetryOff,
		Backtrace: true,
	}
}

// Configure passes c to fn for field assignment and returns it. A nil c is
// replaced by New(). Repeated calls on the returned value accumulate.
func Configure(c *Configuration, fn func(*Configuration)) *Configuration {
	if c == nil {
		c = New()
	}
	if fn != nil {
		fn(c)
	}
	return c
}

// Log returns the configured logger, or the standard logger when unset.
func (c *Configuration) Log() logrus.FieldLogger {
	if c == nil || c.Logger == nil {
		return logrus.StandardLogger()
	}
	return c.Logger
}

// QueueOptions returns the configured defaults as resolved queue options.
func (c *Configuration) QueueOptions() core.QueueOptions {
	return core.QueueOptions{
		Queue:     c.Queue,
		Retry:     c.Retry,
		Backtrace: c.Backtrace,
		Pool:      c.Pool,
	}
}
