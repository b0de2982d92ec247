package runner

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jdziat/backgrounder/pkg/security"
)

// Option configures a Runner.
type Option interface {
	ApplyRunner(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) ApplyRunner(c *Config) { f(c) }

// Config holds runner settings.
type Config struct {
	Queues            []string
	Concurrency       int
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	StaleLockAfter    time.Duration
	WorkerID          string
	Logger            logrus.FieldLogger
	StorageRetry      RetryConfig
	DequeueRetry      RetryConfig
}

// Queues sets the queues to poll. Defaults to "default".
func Queues(names ...string) Option {
	return optionFunc(func(c *Config) {
		c.Queues = append([]string(nil), names...)
	})
}

// Concurrency sets how many jobs run at once.
// Values are clamped to [1, MaxConcurrency].
func Concurrency(n int) Option {
	return optionFunc(func(c *Config) {
		c.Concurrency = security.ClampConcurrency(n)
	})
}

// PollInterval sets the delay between dequeue attempts.
func PollInterval(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		if d > 0 {
			c.PollInterval = d
		}
	})
}

// HeartbeatInterval sets how often a running job's lock is extended.
func HeartbeatInterval(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		if d > 0 {
			c.HeartbeatInterval = d
		}
	})
}

// StaleLockAfter sets how long an expired lock is tolerated before the job
// is returned to pending. Zero disables the sweep.
func StaleLockAfter(d time.Duration) Option {
	return optionFunc(func(c *Config) {
		c.StaleLockAfter = d
	})
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return optionFunc(func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	})
}

// WithWorkerID sets the lock owner name. Defaults to a random UUID.
func WithWorkerID(id string) Option {
	return optionFunc(func(c *Config) {
		if id != "" {
			c.WorkerID = id
		}
	})
}

// WithStorageRetry sets the retry policy for Complete, Fail and Heartbeat.
func WithStorageRetry(rc RetryConfig) Option {
	return optionFunc(func(c *Config) {
		c.StorageRetry = rc
	})
}

// WithDequeueRetry sets the retry policy for Dequeue.
func WithDequeueRetry(rc RetryConfig) Option {
	return optionFunc(func(c *Config) {
		c.DequeueRetry = rc
	})
}
