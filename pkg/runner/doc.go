// Package runner polls a job store and performs the jobs it claims.
//
// A Runner owns a fixed set of goroutines sized by Concurrency. Each claimed
// job's lock is extended by a heartbeat while it runs. Failed jobs are
// rescheduled with exponential backoff until their retry budget is spent.
package runner
