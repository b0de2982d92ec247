// Package storage persists submitted jobs in a SQL database through GORM.
//
// GormStorage is both a core.Backend (Submit) and the queue the runner
// package polls (Dequeue, Complete, Fail, Heartbeat). SQLite and PostgreSQL
// are supported; on PostgreSQL Dequeue locks rows with FOR UPDATE SKIP
// LOCKED so concurrent runners never claim the same job.
package storage
