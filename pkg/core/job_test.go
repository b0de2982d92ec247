package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus_Values(t *testing.T) {
	assert.Equal(t, JobStatus("pending"), StatusPending)
	assert.Equal(t, JobStatus("running"), StatusRunning)
	assert.Equal(t, JobStatus("completed"), StatusCompleted)
	assert.Equal(t, JobStatus("failed"), StatusFailed)
}

func TestNewJob_CopiesOptionsAndDescriptor(t *testing.T) {
	opts := QueueOptions{Queue: "mailers", Retry: RetryLimit(4), Backtrace: true, Pool: "primary"}
	d := NewDescriptor("gid://app/User/7", "deliver", []any{"welcome", 3}, WithExceptionHandler("on_error"))

	job, err := NewJob(opts, d)
	require.NoError(t, err)

	assert.Equal(t, "mailers", job.Queue)
	assert.Equal(t, "primary", job.Pool)
	assert.Equal(t, 4, job.MaxRetries)
	assert.True(t, job.Backtrace)
	assert.Equal(t, StatusPending, job.Status)
	assert.JSONEq(t, `["welcome",3]`, string(job.Args))

	back, err := job.Descriptor()
	require.NoError(t, err)
	assert.Equal(t, "gid://app/User/7", back.Identifier)
	assert.Equal(t, "deliver", back.Method)
	assert.Equal(t, []any{"welcome", float64(3)}, back.Args)
	assert.True(t, back.RaiseOnError)
	assert.Equal(t, "on_error", back.ExceptionHandler)
}

func TestJob_DescriptorWithoutArgs(t *testing.T) {
	job, err := NewJob(QueueOptions{Queue: "default"}, NewDescriptor("BareMock", "run", nil))
	require.NoError(t, err)
	assert.Equal(t, "null", string(job.Args))

	d, err := job.Descriptor()
	require.NoError(t, err)
	assert.Nil(t, d.Args)
	assert.Equal(t, 0, job.MaxRetries)
}

func TestJob_DescriptorBadArgs(t *testing.T) {
	job := &Job{Identifier: "x", Method: "y", Args: []byte("{not json")}
	_, err := job.Descriptor()
	assert.Error(t, err)
}
