package runner

import (
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New(nil, nil).Config()

	assert.Equal(t, []string{"default"}, cfg.Queues)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.HeartbeatInterval)
	assert.NotEmpty(t, cfg.WorkerID)
	assert.NotNil(t, cfg.Logger)
}

func TestQueues(t *testing.T) {
	cfg := New(nil, nil, Queues("critical", "default")).Config()
	assert.Equal(t, []string{"critical", "default"}, cfg.Queues)

	cfg = New(nil, nil, Queues()).Config()
	assert.Equal(t, []string{"default"}, cfg.Queues, "empty list falls back")
}

func TestConcurrency_Clamped(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{5, 5},
		{0, 1},
		{-3, 1},
		{5000, 1000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, New(nil, nil, Concurrency(tt.in)).Config().Concurrency, "Concurrency(%d)", tt.in)
	}
}

func TestDurations_IgnoreNonPositive(t *testing.T) {
	cfg := New(nil, nil, PollInterval(0), HeartbeatInterval(-time.Second)).Config()
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 2*time.Minute, cfg.HeartbeatInterval)

	cfg = New(nil, nil, PollInterval(time.Second), HeartbeatInterval(time.Minute), StaleLockAfter(0)).Config()
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, time.Minute, cfg.HeartbeatInterval)
	assert.Zero(t, cfg.StaleLockAfter)
}

func TestWithLoggerAndWorkerID(t *testing.T) {
	logger, _ := logtest.NewNullLogger()

	cfg := New(nil, nil, WithLogger(logger), WithWorkerID("worker-7")).Config()
	assert.Same(t, logger, cfg.Logger)
	assert.Equal(t, "worker-7", cfg.WorkerID)

	cfg = New(nil, nil, WithLogger(nil), WithWorkerID("")).Config()
	assert.NotNil(t, cfg.Logger)
	assert.NotEmpty(t, cfg.WorkerID)
}

func TestOptionFunc_ImplementsInterface(t *testing.T) {
	var _ Option = optionFunc(nil)
}
