package schedule

import (
	"time"

	"github.com/robfig/cron/v3"
)

// Parser parses five-field cron expressions.
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type everySchedule struct {
	interval time.Duration
}

// Every fires at a fixed interval from the previous firing.
func Every(d time.Duration) cron.Schedule {
	return &everySchedule{interval: d}
}

func (s *everySchedule) Next(from time.Time) time.Time {
	return from.Add(s.interval)
}

type dailySchedule struct {
	hour   int
	minute int
	loc    *time.Location
}

// Daily fires once a day at hour:minute UTC.
func Daily(hour, minute int) cron.Schedule {
	return &dailySchedule{hour: hour, minute: minute, loc: time.UTC}
}

func (s *dailySchedule) Next(from time.Time) time.Time {
	from = from.In(s.loc)
	next := time.Date(from.Year(), from.Month(), from.Day(), s.hour, s.minute, 0, 0, s.loc)
	if !next.After(from) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

type weeklySchedule struct {
	day    time.Weekday
	hour   int
	minute int
	loc    *time.Location
}

// Weekly fires once a week on day at hour:minute UTC.
func Weekly(day time.Weekday, hour, minute int) cron.Schedule {
	return &weeklySchedule{day: day, hour: hour, minute: minute, loc: time.UTC}
}

func (s *weeklySchedule) Next(from time.Time) time.Time {
	from = from.In(s.loc)

	daysUntil := int(s.day - from.Weekday())
	if daysUntil < 0 {
		daysUntil += 7
	}

	next := time.Date(from.Year(), from.Month(), from.Day()+daysUntil, s.hour, s.minute, 0, 0, s.loc)
	if !next.After(from) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// Cron parses a five-field cron expression.
func Cron(expr string) (cron.Schedule, error) {
	return Parser.Parse(expr)
}

// MustCron is Cron that panics on an invalid expression.
func MustCron(expr string) cron.Schedule {
	s, err := Cron(expr)
	if err != nil {
		panic("invalid cron expression: " + err.Error())
	}
	return s
}
