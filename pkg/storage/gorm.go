package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jdziat/backgrounder/pkg/core"
	"github.com/jdziat/backgrounder/pkg/security"
)

// LockDuration is how long a dequeued job stays claimed without a heartbeat.
const LockDuration = 5 * time.Minute

// GormStorage stores jobs in the jobs table.
type GormStorage struct {
	db *gorm.DB
}

// NewGormStorage creates a storage over db.
func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

// DB returns the underlying connection.
func (s *GormStorage) DB() *gorm.DB {
	return s.db
}

// IsSQLite reports whether the connection uses the sqlite dialect.
func (s *GormStorage) IsSQLite() bool {
	return s.db != nil && s.db.Dialector != nil && s.db.Dialector.Name() == "sqlite"
}

// Migrate creates or updates the jobs table.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.Job{})
}

// Submit implements core.Backend. The queue name is validated, the retry
// budget clamped and the arguments size-checked before the row is created.
func (s *GormStorage) Submit(ctx context.Context, opts core.QueueOptions, d core.Descriptor) (string, error) {
	if err := security.ValidateQueueName(opts.Queue); err != nil {
		return "", err
	}
	job, err := core.NewJob(opts, d)
	if err != nil {
		return "", err
	}
	if err := security.ValidateArgsSize(job.Args); err != nil {
		return "", err
	}
	job.MaxRetries = security.ClampRetries(job.MaxRetries)

	if err := s.Enqueue(ctx, job); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	return job.ID, nil
}

// Enqueue inserts job, filling in ID, status and queue when unset.
func (s *GormStorage) Enqueue(ctx context.Context, job *core.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Status == "" {
		job.Status = core.StatusPending
	}
	if job.Queue == "" {
		job.Queue = "default"
	}
	return s.db.WithContext(ctx).Create(job).Error
}

// Dequeue claims the oldest due pending job in queues for workerID.
// It returns nil when nothing is due.
func (s *GormStorage) Dequeue(ctx context.Context, queues []string, workerID string) (*core.Job, error) {
	var job core.Job
	now := time.Now()
	lockUntil := now.Add(LockDuration)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.
			Where("queue IN ?", queues).
			Where("status = ?", core.StatusPending).
			Where("(run_at IS NULL OR run_at <= ?)", now).
			Where("(locked_until IS NULL OR locked_until < ?)", now).
			Order("created_at ASC")
		if !s.IsSQLite() {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		if err := q.First(&job).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		job.Status = core.StatusRunning
		job.LockedBy = workerID
		job.LockedUntil = &lockUntil
		job.StartedAt = &now
		job.Attempt++

		return tx.Save(&job).Error
	})

	if err != nil {
		return nil, err
	}
	if job.ID == "" {
		return nil, nil
	}
	return &job, nil
}

// Complete marks a job owned by workerID as completed.
func (s *GormStorage) Complete(ctx context.Context, jobID, workerID string) error {
	now := time.Now()
	return s.owned(ctx, jobID, workerID, map[string]any{
		"status":       core.StatusCompleted,
		"completed_at": now,
		"locked_by":    "",
		"locked_until": nil,
	})
}

// Fail records a failure of a job owned by workerID. With a non-nil retryAt
// the job returns to pending and runs again at that time; otherwise it is
// failed permanently. The message is sanitized; backtrace is stored as is.
func (s *GormStorage) Fail(ctx context.Context, jobID, workerID, errMsg, backtrace string, retryAt *time.Time) error {
	updates := map[string]any{
		"last_error":      security.SanitizeErrorMessage(errMsg),
		"error_backtrace": backtrace,
		"locked_by":       "",
		"locked_until":    nil,
	}

	if retryAt != nil {
		updates["status"] = core.StatusPending
		updates["run_at"] = retryAt
	} else {
		updates["status"] = core.StatusFailed
		updates["completed_at"] = time.Now()
	}

	return s.owned(ctx, jobID, workerID, updates)
}

// Heartbeat extends the lock of a job owned by workerID.
func (s *GormStorage) Heartbeat(ctx context.Context, jobID, workerID string) error {
	return s.owned(ctx, jobID, workerID, map[string]any{
		"locked_until": time.Now().Add(LockDuration),
	})
}

func (s *GormStorage) owned(ctx context.Context, jobID, workerID string, updates map[string]any) error {
	result := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Where("id = ? AND locked_by = ?", jobID, workerID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrJobNotOwned
	}
	return nil
}

// ReleaseStaleLocks returns running jobs whose lock expired more than
// staleDuration ago to pending.
func (s *GormStorage) ReleaseStaleLocks(ctx context.Context, staleDuration time.Duration) (int64, error) {
	cutoff := time.Now().Add(-staleDuration)
	result := s.db.WithContext(ctx).
		Model(&core.Job{}).
		Where("status = ?", core.StatusRunning).
		Where("locked_until < ?", cutoff).
		Updates(map[string]any{
			"status":       core.StatusPending,
			"locked_by":    "",
			"locked_until": nil,
		})
	return result.RowsAffected, result.Error
}

// GetJob returns the job with jobID, or nil when it does not exist.
func (s *GormStorage) GetJob(ctx context.Context, jobID string) (*core.Job, error) {
	var job core.Job
	err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetJobsByStatus returns up to limit jobs in status, oldest first.
func (s *GormStorage) GetJobsByStatus(ctx context.Context, status core.JobStatus, limit int) ([]*core.Job, error) {
	var jobs []*core.Job
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}
