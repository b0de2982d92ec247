package storage

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jdziat/backgrounder/pkg/core"
)

// openTestDB opens a database for tests.
// When TEST_DATABASE_URL is set it connects to PostgreSQL; otherwise it
// opens a fresh in-memory SQLite instance.
// PostgreSQL connections are pool-limited and closed on test cleanup to
// avoid exceeding max_connections.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		require.NoError(t, err, "open postgres test db")

		sqlDB, err := db.DB()
		require.NoError(t, err, "get underlying sql.DB")
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(1)

		// Clean before AND after to ensure test isolation.
		cleanupPostgresDB(t, db)
		t.Cleanup(func() {
			cleanupPostgresDB(t, db)
			_ = sqlDB.Close()
		})
		return db
	}
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open in-memory sqlite")
	return db
}

// cleanupPostgresDB empties the jobs table so tests share one database.
func cleanupPostgresDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	db.Exec("DELETE FROM jobs")
}

// newTestStorage returns a migrated storage on a fresh test database.
func newTestStorage(t *testing.T) *GormStorage {
	t.Helper()
	s := NewGormStorage(openTestDB(t))
	require.NoError(t, s.Migrate(context.Background()), "migrate schema")
	return s
}

// claim submits a job on queue and dequeues it for workerID.
func claim(t *testing.T, s *GormStorage, queue, workerID string, retry core.Retry) *core.Job {
	t.Helper()
	ctx := context.Background()
	opts := core.QueueOptions{Queue: queue, Retry: retry, Backtrace: true}
	_, err := s.Submit(ctx, opts, core.NewDescriptor("Mock", "run", nil))
	require.NoError(t, err)

	job, err := s.Dequeue(ctx, []string{queue}, workerID)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}
