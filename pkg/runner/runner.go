package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ztrue/tracerr"

	"github.com/jdziat/backgrounder/pkg/core"
	"github.com/jdziat/backgrounder/pkg/jobctx"
)

// Store is the job queue a Runner polls. storage.GormStorage implements it.
type Store interface {
	Dequeue(ctx context.Context, queues []string, workerID string) (*core.Job, error)
	Complete(ctx context.Context, jobID, workerID string) error
	Fail(ctx context.Context, jobID, workerID, errMsg, backtrace string, retryAt *time.Time) error
	Heartbeat(ctx context.Context, jobID, workerID string) error
}

// staleLockReleaser is implemented by stores that can reclaim abandoned jobs.
type staleLockReleaser interface {
	ReleaseStaleLocks(ctx context.Context, staleDuration time.Duration) (int64, error)
}

// Runner performs jobs claimed from a Store.
type Runner struct {
	store     Store
	performer core.Performer
	config    Config
	wg        sync.WaitGroup
}

// New creates a Runner that hands each claimed job to performer.
func New(store Store, performer core.Performer, opts ...Option) *Runner {
	config := Config{
		Queues:            []string{"default"},
		Concurrency:       10,
		PollInterval:      100 * time.Millisecond,
		HeartbeatInterval: 2 * time.Minute,
		StaleLockAfter:    time.Minute,
		WorkerID:          uuid.New().String(),
		Logger:            logrus.StandardLogger(),
		StorageRetry:      DefaultRetryConfig(),
		DequeueRetry: RetryConfig{
			MaxAttempts:       3,
			InitialBackoff:    500 * time.Millisecond,
			MaxBackoff:        10 * time.Second,
			BackoffMultiplier: 2.0,
			JitterFraction:    0.2,
		},
	}

	for _, opt := range opts {
		opt.ApplyRunner(&config)
	}
	if len(config.Queues) == 0 {
		config.Queues = []string{"default"}
	}

	return &Runner{
		store:     store,
		performer: performer,
		config:    config,
	}
}

// Config returns the effective settings.
func (r *Runner) Config() Config {
	return r.config
}

func (r *Runner) log() logrus.FieldLogger {
	return r.config.Logger.WithField("worker_id", r.config.WorkerID)
}

// Start processes jobs until ctx is done, then waits for running jobs.
func (r *Runner) Start(ctx context.Context) error {
	jobs := make(chan *core.Job, r.config.Concurrency)

	for i := 0; i < r.config.Concurrency; i++ {
		r.wg.Add(1)
		go r.processLoop(ctx, jobs)
	}

	if releaser, ok := r.store.(staleLockReleaser); ok && r.config.StaleLockAfter > 0 {
		r.wg.Add(1)
		go r.releaseStaleLocks(ctx, releaser)
	}

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(jobs)
			r.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			job, err := r.dequeueWithRetry(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
					r.log().WithError(err).Error("failed to dequeue after retries")
				}
				continue
			}
			if job != nil {
				select {
				case jobs <- job:
				case <-ctx.Done():
				}
			}
		}
	}
}

func (r *Runner) dequeueWithRetry(ctx context.Context) (*core.Job, error) {
	var job *core.Job
	err := retryWithBackoff(ctx, r.config.DequeueRetry, func() error {
		var dequeueErr error
		job, dequeueErr = r.store.Dequeue(ctx, r.config.Queues, r.config.WorkerID)
		return dequeueErr
	})
	return job, err
}

func (r *Runner) processLoop(ctx context.Context, jobs <-chan *core.Job) {
	defer r.wg.Done()

	for job := range jobs {
		r.process(ctx, job)
	}
}

func (r *Runner) process(ctx context.Context, job *core.Job) {
	log := r.log().WithFields(logrus.Fields{"job_id": job.ID, "queue": job.Queue, "attempt": job.Attempt})

	d, err := job.Descriptor()
	if err != nil {
		log.WithError(err).Error("undecodable job")
		r.failWithRetry(ctx, job, err, nil)
		return
	}

	heartbeatCtx, cancelHeartbeat := context.WithCancel(ctx)
	defer cancelHeartbeat()
	go r.runHeartbeat(heartbeatCtx, job)

	start := time.Now()
	err = r.perform(jobctx.With(ctx, jobctx.Info{ID: job.ID, Queue: job.Queue, Attempt: job.Attempt}), d)
	cancelHeartbeat()

	if err != nil {
		r.handleError(ctx, log, job, err)
		return
	}

	if err := retryWithBackoff(ctx, r.config.StorageRetry, func() error {
		return r.store.Complete(ctx, job.ID, r.config.WorkerID)
	}); err != nil {
		log.WithError(err).Error("failed to complete job after retries")
		return
	}
	log.WithField("duration", time.Since(start)).Debug("job completed")
}

func (r *Runner) perform(ctx context.Context, d core.Descriptor) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = tracerr.Wrap(fmt.Errorf("panic: %v", p))
		}
	}()
	return r.performer.Perform(ctx, d)
}

func (r *Runner) handleError(ctx context.Context, log logrus.FieldLogger, job *core.Job, err error) {
	if job.Attempt <= job.MaxRetries {
		retryAt := time.Now().Add(Backoff(job.Attempt))
		log.WithError(err).Warnf("job failed, retrying at %s", retryAt.Format(time.RFC3339))
		r.failWithRetry(ctx, job, err, &retryAt)
		return
	}
	log.WithError(err).Error("job failed permanently")
	r.failWithRetry(ctx, job, err, nil)
}

func (r *Runner) failWithRetry(ctx context.Context, job *core.Job, cause error, retryAt *time.Time) {
	var backtrace string
	if job.Backtrace {
		backtrace = Backtrace(cause)
	}
	err := retryWithBackoff(ctx, r.config.StorageRetry, func() error {
		return r.store.Fail(ctx, job.ID, r.config.WorkerID, cause.Error(), backtrace, retryAt)
	})
	if err != nil {
		r.log().WithError(err).WithField("job_id", job.ID).Error("failed to mark job as failed after retries")
	}
}

func (r *Runner) runHeartbeat(ctx context.Context, job *core.Job) {
	ticker := time.NewTicker(r.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := retryWithBackoff(ctx, r.config.StorageRetry, func() error {
				return r.store.Heartbeat(ctx, job.ID, r.config.WorkerID)
			})
			if err != nil {
				r.log().WithError(err).WithField("job_id", job.ID).Warn("heartbeat failed after retries")
			}
		}
	}
}

func (r *Runner) releaseStaleLocks(ctx context.Context, releaser staleLockReleaser) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StaleLockAfter)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := releaser.ReleaseStaleLocks(ctx, r.config.StaleLockAfter)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					r.log().WithError(err).Warn("failed to release stale locks")
				}
				continue
			}
			if n > 0 {
				r.log().Infof("released %d stale job locks", n)
			}
		}
	}
}

// Backoff is the delay before retrying a job after its nth attempt:
// one second doubling per attempt, capped at one minute.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 7 {
		return time.Minute
	}
	backoff := time.Second << (attempt - 1)
	if backoff > time.Minute {
		backoff = time.Minute
	}
	return backoff
}

// Backtrace renders the stack trace recorded on err, or "" when it carries
// none.
func Backtrace(err error) string {
	if len(core.StackTrace(err)) == 0 {
		return ""
	}
	return core.Sprint(err)
}
