package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/backgrounder/pkg/core"
)

type recordingSubmitter struct {
	mu    sync.Mutex
	descs []core.Descriptor
	err   error
}

func (r *recordingSubmitter) Submit(_ context.Context, d core.Descriptor) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.descs = append(r.descs, d)
	return "job-1", nil
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.descs)
}

func TestEvery(t *testing.T) {
	s := Every(time.Hour)
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	next1 := s.Next(start)
	next2 := s.Next(next1)

	assert.Equal(t, time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC), next1)
	assert.Equal(t, time.Date(2024, 1, 1, 14, 0, 0, 0, time.UTC), next2)
}

func TestDaily(t *testing.T) {
	s := Daily(9, 30)

	assert.Equal(t, time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), s.Next(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), s.Next(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
}

func TestWeekly(t *testing.T) {
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), Weekly(time.Monday, 10, 0).Next(monday))
	assert.Equal(t, time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), Weekly(time.Monday, 10, 0).Next(monday.Add(11*time.Hour)))
	assert.Equal(t, time.Date(2024, 1, 5, 17, 0, 0, 0, time.UTC), Weekly(time.Friday, 17, 0).Next(monday))
}

func TestCron(t *testing.T) {
	s, err := Cron("30 14 * * 1-5")
	require.NoError(t, err)

	next := s.Next(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 14, next.Hour())
	assert.Equal(t, 30, next.Minute())

	_, err = Cron("invalid cron")
	assert.Error(t, err)
	_, err = Cron("0 0 9 * * *")
	assert.Error(t, err, "six fields are rejected")
}

func TestMustCron_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCron("invalid cron") })
	assert.NotPanics(t, func() { MustCron("* * * * *") })
}

func TestScheduler_EntrySubmitsDescriptor(t *testing.T) {
	sub := &recordingSubmitter{}
	sc := New(nil)
	d := core.NewDescriptor("Report", "generate", []any{"daily"})

	id, err := sc.Add("0 9 * * *", sub, d)
	require.NoError(t, err)

	entry := sc.Entry(id)
	require.True(t, entry.Valid())
	entry.Job.Run()

	require.Equal(t, 1, sub.count())
	assert.Equal(t, d, sub.descs[0])
}

func TestScheduler_InvalidSpec(t *testing.T) {
	_, err := New(nil).Add("not a spec", &recordingSubmitter{}, core.NewDescriptor("Report", "generate", nil))
	assert.Error(t, err)
}

func TestScheduler_SubmitErrorIsLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	sc := New(logger)
	id := sc.AddSchedule(Every(time.Hour), &recordingSubmitter{err: errors.New("backend down")}, core.NewDescriptor("Report", "generate", nil))

	sc.Entry(id).Job.Run()

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "failed to submit scheduled job", entry.Message)
}

func TestScheduler_RunsOnSchedule(t *testing.T) {
	sub := &recordingSubmitter{}
	sc := New(nil)
	sc.AddSchedule(Every(10*time.Millisecond), sub, core.NewDescriptor("Report", "generate", nil))

	sc.Start()
	require.Eventually(t, func() bool { return sub.count() > 0 }, 3*time.Second, 10*time.Millisecond)
	<-sc.Stop().Done()
}

func TestScheduler_Remove(t *testing.T) {
	sc := New(nil)
	id := sc.AddSchedule(Every(time.Hour), &recordingSubmitter{}, core.NewDescriptor("Report", "generate", nil))

	sc.Remove(id)

	assert.Equal(t, cron.Entry{}, sc.Entry(id))
}
