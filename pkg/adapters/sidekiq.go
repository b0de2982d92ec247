package adapters

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jdziat/backgrounder/pkg/core"
	"github.com/jdziat/backgrounder/pkg/report"
)

// WorkerClass is the class name written into every job payload.
const WorkerClass = "Backgrounder::Worker"

// Payload is a job in Sidekiq's JSON wire format. Args holds the
// descriptor in its positional form.
type Payload struct {
	Class          string          `json:"class"`
	Args           core.Descriptor `json:"args"`
	Queue          string          `json:"queue"`
	Retry          core.Retry      `json:"retry"`
	Backtrace      bool            `json:"backtrace"`
	Pool           string          `json:"pool,omitempty"`
	JID            string          `json:"jid"`
	CreatedAt      float64         `json:"created_at"`
	EnqueuedAt     float64         `json:"enqueued_at"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	ErrorClass     string          `json:"error_class,omitempty"`
	FailedAt       float64         `json:"failed_at,omitempty"`
	RetriedAt      float64         `json:"retried_at,omitempty"`
	RetryCount     *int            `json:"retry_count,omitempty"`
	ErrorBacktrace []string        `json:"error_backtrace,omitempty"`
}

// NewPayload builds the payload for a fresh submission.
func NewPayload(opts core.QueueOptions, d core.Descriptor, now time.Time) Payload {
	ts := epoch(now)
	return Payload{
		Class:      WorkerClass,
		Args:       d,
		Queue:      opts.Queue,
		Retry:      opts.Retry,
		Backtrace:  opts.Backtrace,
		Pool:       opts.Pool,
		JID:        NewJID(),
		CreatedAt:  ts,
		EnqueuedAt: ts,
	}
}

// DecodePayload parses a payload read from Redis.
func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("invalid job payload: %w", err)
	}
	if p.Args.Identifier == "" || p.Args.Method == "" {
		return p, errors.New("invalid job payload: missing identifier or method")
	}
	return p, nil
}

// NewJID returns a 24 character hex job id.
func NewJID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:24]
}

// Destination says where a failed job goes next.
type Destination int

const (
	// Discard drops the job; retries were disabled.
	Discard Destination = iota
	// RetrySet schedules the job for another attempt.
	RetrySet
	// DeadSet keeps the job for inspection after its retries ran out.
	DeadSet
)

// RecordFailure updates p with the details of cause and decides where the
// job goes next. For RetrySet the returned time is when it runs again.
// jitter(n) must return a value in [0, n).
func RecordFailure(p *Payload, cause error, now time.Time, jitter func(n int) int) (Destination, time.Time) {
	count := 0
	if p.RetryCount == nil {
		p.FailedAt = epoch(now)
	} else {
		count = *p.RetryCount + 1
		p.RetriedAt = epoch(now)
	}
	p.RetryCount = &count
	p.ErrorMessage = cause.Error()
	p.ErrorClass = errorClass(cause)
	p.ErrorBacktrace = nil
	if p.Backtrace {
		p.ErrorBacktrace = backtraceLines(cause)
	}

	if !p.Retry.Enabled {
		return Discard, time.Time{}
	}
	if count < p.Retry.Attempts() {
		return RetrySet, now.Add(RetryDelay(count, jitter))
	}
	return DeadSet, time.Time{}
}

// RetryDelay is Sidekiq's backoff: count^4 + 15 + rand(10)*(count+1) seconds.
func RetryDelay(count int, jitter func(n int) int) time.Duration {
	seconds := int(math.Pow(float64(count), 4)) + 15 + jitter(10)*(count+1)
	return time.Duration(seconds) * time.Second
}

func errorClass(err error) string {
	var domainErr *core.Error
	if errors.As(err, &domainErr) {
		return report.ErrorClass
	}
	return core.TypeName(err)
}

func backtraceLines(err error) []string {
	frames := core.StackTrace(err)
	if len(frames) == 0 {
		return nil
	}
	lines := make([]string, 0, len(frames))
	for _, f := range frames {
		lines = append(lines, f.String())
	}
	return lines
}

func epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
