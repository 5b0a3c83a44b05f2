package migration

import (
	"context"
	"database/sql"

	"simeval/internal/errors"
)

// Execer runs schema statements; *sqlx.DB and *sql.DB satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db Execer) error
	Version() string
}

// MigrationRunner creates the report store schema
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every statement is
// idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db Execer) error {
	if err := r.createEvaluationReportsTable(ctx, db); err != nil {
		return errors.DatabaseError("failed to create evaluation_reports table", err)
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.DatabaseError("failed to create indexes", err)
	}

	return nil
}

func (r *MigrationRunner) createEvaluationReportsTable(ctx context.Context, db Execer) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS evaluation_reports (
			run_id UUID PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			measurement_count INTEGER NOT NULL,
			failure_count INTEGER NOT NULL DEFAULT 0,
			report JSONB NOT NULL
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db Execer) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_evaluation_reports_created_at
			ON evaluation_reports (created_at DESC)
	`)
	return err
}

var _ Migrator = (*MigrationRunner)(nil)
