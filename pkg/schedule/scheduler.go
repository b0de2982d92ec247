package schedule

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/jdziat/backgrounder/pkg/core"
)

// Submitter accepts a descriptor for execution. *dispatch.Handle implements it.
type Submitter interface {
	Submit(ctx context.Context, d core.Descriptor) (string, error)
}

// Scheduler submits descriptors when their schedules fire.
type Scheduler struct {
	cron   *cron.Cron
	logger logrus.FieldLogger
}

// New creates a stopped Scheduler. A nil logger means the standard logger.
func New(logger logrus.FieldLogger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(Parser),
			cron.WithLogger(cron.PrintfLogger(printfLogger{logger})),
		),
		logger: logger,
	}
}

// Add submits d through s whenever the cron expression spec fires.
func (sc *Scheduler) Add(spec string, s Submitter, d core.Descriptor) (cron.EntryID, error) {
	schedule, err := Cron(spec)
	if err != nil {
		return 0, err
	}
	return sc.AddSchedule(schedule, s, d), nil
}

// AddSchedule submits d through s whenever schedule fires.
func (sc *Scheduler) AddSchedule(schedule cron.Schedule, s Submitter, d core.Descriptor) cron.EntryID {
	return sc.cron.Schedule(schedule, sc.job(s, d))
}

// Remove stops firing entry id.
func (sc *Scheduler) Remove(id cron.EntryID) {
	sc.cron.Remove(id)
}

// Entry returns the entry for id; the zero Entry when absent.
func (sc *Scheduler) Entry(id cron.EntryID) cron.Entry {
	return sc.cron.Entry(id)
}

// Start runs the scheduler in its own goroutine.
func (sc *Scheduler) Start() {
	sc.cron.Start()
}

// Stop stops the scheduler and returns a context done when running
// submissions have finished.
func (sc *Scheduler) Stop() context.Context {
	return sc.cron.Stop()
}

func (sc *Scheduler) job(s Submitter, d core.Descriptor) cron.Job {
	return cron.FuncJob(func() {
		log := sc.logger.WithFields(logrus.Fields{"identifier": d.Identifier, "method": d.Method})
		id, err := s.Submit(context.Background(), d)
		if err != nil {
			log.WithError(err).Error("failed to submit scheduled job")
			return
		}
		log.WithField("job_id", id).Debug("submitted scheduled job")
	})
}

// printfLogger routes cron's own messages to logrus at debug level.
type printfLogger struct {
	logger logrus.FieldLogger
}

func (p printfLogger) Printf(format string, args ...any) {
	p.logger.Debugf(format, args...)
}
