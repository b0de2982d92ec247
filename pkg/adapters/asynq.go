package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/jdziat/backgrounder/pkg/core"
	"github.com/jdziat/backgrounder/pkg/jobctx"
)

// TaskType is the asynq task type of every submitted descriptor.
const TaskType = "backgrounder:perform"

// InfoRetention is how long a completed task's info stays in Redis when
// backtraces are on. asynq has no backtrace setting: retried and archived
// tasks keep their last error regardless, and only completed tasks are
// deleted right away unless a retention is set.
const InfoRetention = 24 * time.Hour

// TaskEnqueuer is the part of *asynq.Client used by AsynqBackend.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqBackend submits descriptors as asynq tasks.
type AsynqBackend struct {
	client TaskEnqueuer
	logger logrus.FieldLogger
}

// NewAsynqClient creates an asynq client for a redis:// URL.
func NewAsynqClient(redisURL string) (*asynq.Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return asynq.NewClient(opt), nil
}

// NewAsynqBackend creates a backend on client. A nil logger means the
// standard logger.
func NewAsynqBackend(client TaskEnqueuer, logger logrus.FieldLogger) *AsynqBackend {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AsynqBackend{client: client, logger: logger}
}

// TaskOptions translates queue options into asynq options. Backtrace keeps
// completed task info for InfoRetention so a job's whole history can be
// inspected.
func TaskOptions(opts core.QueueOptions, taskID string) []asynq.Option {
	out := []asynq.Option{
		asynq.Queue(opts.Queue),
		asynq.MaxRetry(opts.Retry.Attempts()),
		asynq.TaskID(taskID),
	}
	if opts.Backtrace {
		out = append(out, asynq.Retention(InfoRetention))
	}
	return out
}

// Submit implements core.Backend.
func (b *AsynqBackend) Submit(ctx context.Context, opts core.QueueOptions, d core.Descriptor) (string, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job data: %w", err)
	}

	task := asynq.NewTask(TaskType, payload)
	info, err := b.client.EnqueueContext(ctx, task, TaskOptions(opts, uuid.New().String())...)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	b.logger.Infof("job enqueued id=%s (%s#%s)", info.ID, d.Identifier, d.Method)
	return info.ID, nil
}

// AsynqHandler returns a handler that decodes a task payload and performs
// it. Malformed payloads are not retried.
func AsynqHandler(p core.Performer) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		var d core.Descriptor
		if err := json.Unmarshal(t.Payload(), &d); err != nil {
			return fmt.Errorf("invalid task payload: %v: %w", err, asynq.SkipRetry)
		}
		info := jobctx.Info{Attempt: 1}
		info.ID, _ = asynq.GetTaskID(ctx)
		info.Queue, _ = asynq.GetQueueName(ctx)
		if n, ok := asynq.GetRetryCount(ctx); ok {
			info.Attempt = n + 1
		}
		return p.Perform(jobctx.With(ctx, info), d)
	})
}

// NewAsynqServer creates an asynq server for redisURL and a mux routing
// TaskType to p. queues maps queue names to priorities.
func NewAsynqServer(redisURL string, p core.Performer, concurrency int, queues map[string]int, logger logrus.FieldLogger) (*asynq.Server, *asynq.ServeMux, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
		Logger:      logger,
	})
	mux := asynq.NewServeMux()
	mux.Handle(TaskType, AsynqHandler(p))
	return srv, mux, nil
}
