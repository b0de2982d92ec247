package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus represents the current state of a durable job.
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job is a submitted descriptor persisted by the SQL backend.
type Job struct {
	ID               string     `gorm:"primaryKey;size:36"`
	Queue            string     `gorm:"index;size:255;default:'default'"`
	Pool             string     `gorm:"size:255"`
	Identifier       string     `gorm:"size:1024;not null"`
	Method           string     `gorm:"size:255;not null"`
	Args             []byte     `gorm:"type:bytes"`
	RaiseOnError     bool
	ExceptionHandler string     `gorm:"size:255"`
	Status           JobStatus  `gorm:"index;size:20;default:'pending'"`
	Attempt          int        `gorm:"default:0"`
	MaxRetries       int        `gorm:"default:0"`
	Backtrace        bool
	LastError        string     `gorm:"type:text"`
	ErrorBacktrace   string     `gorm:"type:text"`
	RunAt            *time.Time `gorm:"index"`
	StartedAt        *time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time  `gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime"`
	LockedBy         string     `gorm:"size:255"`
	LockedUntil      *time.Time `gorm:"index"`
}

// NewJob builds an unsaved Job row from resolved options and a descriptor.
func NewJob(opts QueueOptions, d Descriptor) (*Job, error) {
	args, err := json.Marshal(d.Args)
	if err != nil {
		return nil, fmt.Errorf("backgrounder: failed to marshal args: %w", err)
	}
	return &Job{
		Queue:            opts.Queue,
		Pool:             opts.Pool,
		Identifier:       d.Identifier,
		Method:           d.Method,
		Args:             args,
		RaiseOnError:     d.RaiseOnError,
		ExceptionHandler: d.ExceptionHandler,
		Status:           StatusPending,
		MaxRetries:       opts.Retry.Attempts(),
		Backtrace:        opts.Backtrace,
	}, nil
}

// Descriptor decodes the invocation stored in the row.
func (j *Job) Descriptor() (Descriptor, error) {
	d := Descriptor{
		Identifier:       j.Identifier,
		Method:           j.Method,
		RaiseOnError:     j.RaiseOnError,
		ExceptionHandler: j.ExceptionHandler,
	}
	if len(j.Args) > 0 {
		if err := json.Unmarshal(j.Args, &d.Args); err != nil {
			return d, fmt.Errorf("backgrounder: failed to unmarshal args: %w", err)
		}
	}
	return d, nil
}
