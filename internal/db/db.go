package db

import (
	"fmt"

	"eaiser/internal/auth"
	"eaiser/internal/jobs"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens Postgres with error translation on, so unique-index
// violations come back as gorm.ErrDuplicatedKey.
func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	// Emails are stored lowercased; this index backstops uniqueness for
	// any row written before normalization existed.
	if err := gdb.Exec(`create unique index if not exists uq_users_lower_email on users (lower(email));`).Error; err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
