package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/backgrounder/pkg/core"
	"github.com/jdziat/backgrounder/pkg/jobctx"
)

// fakeEnqueuer records tasks instead of talking to Redis.
type fakeEnqueuer struct {
	task *asynq.Task
	opts []asynq.Option
	err  error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.task = task
	f.opts = opts
	return &asynq.TaskInfo{ID: "task-1", Type: task.Type(), Payload: task.Payload()}, nil
}

func optionValues(opts []asynq.Option) map[asynq.OptionType]any {
	out := make(map[asynq.OptionType]any, len(opts))
	for _, o := range opts {
		out[o.Type()] = o.Value()
	}
	return out
}

func TestTaskOptions(t *testing.T) {
	values := optionValues(TaskOptions(core.QueueOptions{Queue: "other_queue", Retry: core.RetryOn, Backtrace: true}, "id-1"))

	assert.Equal(t, "other_queue", values[asynq.QueueOpt])
	assert.Equal(t, core.DefaultRetryLimit, values[asynq.MaxRetryOpt])
	assert.Equal(t, "id-1", values[asynq.TaskIDOpt])
	assert.Equal(t, InfoRetention, values[asynq.RetentionOpt])
}

func TestTaskOptions_RetryOffNoBacktrace(t *testing.T) {
	values := optionValues(TaskOptions(core.QueueOptions{Queue: "default", Retry: core.RetryOff}, "id-1"))

	assert.Equal(t, 0, values[asynq.MaxRetryOpt])
	assert.NotContains(t, values, asynq.RetentionOpt)
}

func TestAsynqBackend_Submit(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	fake := &fakeEnqueuer{}
	b := NewAsynqBackend(fake, logger)

	id, err := b.Submit(context.Background(), core.QueueOptions{Queue: "default", Retry: core.RetryLimit(3)}, core.NewDescriptor("Mock", "run", []any{"data1"}))
	require.NoError(t, err)

	assert.Equal(t, "task-1", id)
	require.NotNil(t, fake.task)
	assert.Equal(t, TaskType, fake.task.Type())
	assert.JSONEq(t, `["Mock","run",["data1"],true,null]`, string(fake.task.Payload()))
	assert.Equal(t, 3, optionValues(fake.opts)[asynq.MaxRetryOpt])
	assert.Equal(t, "job enqueued id=task-1 (Mock#run)", hook.LastEntry().Message)
}

func TestAsynqBackend_SubmitError(t *testing.T) {
	b := NewAsynqBackend(&fakeEnqueuer{err: errors.New("redis down")}, nil)

	_, err := b.Submit(context.Background(), core.QueueOptions{Queue: "default"}, core.NewDescriptor("Mock", "run", nil))

	assert.ErrorContains(t, err, "redis down")
}

func TestAsynqHandler(t *testing.T) {
	var got core.Descriptor
	h := AsynqHandler(core.PerformerFunc(func(_ context.Context, d core.Descriptor) error {
		got = d
		return nil
	}))

	payload, err := json.Marshal(core.NewDescriptor("Mock", "run", []any{"a"}, core.WithRaise(false)))
	require.NoError(t, err)

	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(TaskType, payload)))
	assert.Equal(t, "Mock", got.Identifier)
	assert.Equal(t, []any{"a"}, got.Args)
	assert.False(t, got.RaiseOnError)
}

func TestAsynqHandler_AttachesJobInfo(t *testing.T) {
	var info jobctx.Info
	var ok bool
	h := AsynqHandler(core.PerformerFunc(func(ctx context.Context, _ core.Descriptor) error {
		info, ok = jobctx.FromContext(ctx)
		return nil
	}))

	require.NoError(t, h.ProcessTask(context.Background(), asynq.NewTask(TaskType, []byte(`["Mock","run"]`))))
	assert.True(t, ok)
	assert.Equal(t, 1, info.Attempt)
}

func TestAsynqHandler_PropagatesFailure(t *testing.T) {
	boom := errors.New("boom")
	h := AsynqHandler(core.PerformerFunc(func(context.Context, core.Descriptor) error { return boom }))

	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskType, []byte(`["Mock","fail"]`)))

	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestAsynqHandler_MalformedPayloadSkipsRetry(t *testing.T) {
	h := AsynqHandler(core.PerformerFunc(func(context.Context, core.Descriptor) error {
		t.Fatal("should not perform")
		return nil
	}))

	err := h.ProcessTask(context.Background(), asynq.NewTask(TaskType, []byte(`{}`)))

	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestNewAsynqClient_InvalidURL(t *testing.T) {
	_, err := NewAsynqClient("http://localhost:6379")
	assert.Error(t, err)
}

func TestNewAsynqServer(t *testing.T) {
	srv, mux, err := NewAsynqServer("redis://localhost:6379/0", core.PerformerFunc(func(context.Context, core.Descriptor) error {
		return nil
	}), 2, map[string]int{"default": 1}, nil)
	require.NoError(t, err)
	assert.NotNil(t, srv)

	h, pattern := mux.Handler(asynq.NewTask(TaskType, nil))
	assert.Equal(t, TaskType, pattern)
	assert.NotNil(t, h)
}
