// Package adapters connects the dispatcher and worker to external systems:
// a Sidekiq-compatible Redis queue, hibiken/asynq, and Sentry for error
// reporting.
package adapters
