// Package schedule submits job descriptors on a recurring schedule.
//
// Schedules are cron.Schedule values: Every, Daily, Weekly and Cron build
// the common ones, and Scheduler.Add accepts a five-field cron expression
// directly. Each firing submits the descriptor through a dispatch handle
// (or any Submitter).
package schedule
