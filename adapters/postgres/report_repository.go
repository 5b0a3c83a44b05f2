package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jmoiron/sqlx"

	"simeval/domain/core"
	"simeval/internal/errors"
	"simeval/ports"
)

// defaultListLimit caps List when no positive limit is given.
const defaultListLimit = 50

// ReportRepository stores serialised batch reports in PostgreSQL
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Save inserts a report, replacing an earlier report of the same run
func (r *ReportRepository) Save(ctx context.Context, report *ports.StoredReport) error {
	query := `
		INSERT INTO evaluation_reports (
			run_id, created_at, measurement_count, failure_count, report
		) VALUES (:run_id, :created_at, :measurement_count, :failure_count, :report)
		ON CONFLICT (run_id) DO UPDATE SET
			created_at = EXCLUDED.created_at,
			measurement_count = EXCLUDED.measurement_count,
			failure_count = EXCLUDED.failure_count,
			report = EXCLUDED.report`

	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return errors.DatabaseError("failed to save evaluation report", err)
	}
	return nil
}

// Get loads the report of one run
func (r *ReportRepository) Get(ctx context.Context, runID core.RunID) (*ports.StoredReport, error) {
	query := `
		SELECT run_id, created_at, measurement_count, failure_count, report
		FROM evaluation_reports
		WHERE run_id = $1`

	var report ports.StoredReport
	if err := r.db.GetContext(ctx, &report, query, runID.String()); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("report " + runID.String())
		}
		return nil, errors.DatabaseError("failed to get evaluation report", err)
	}
	return &report, nil
}

// List returns the most recent reports without their bodies
func (r *ReportRepository) List(ctx context.Context, limit int) ([]*ports.StoredReport, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := `
		SELECT run_id, created_at, measurement_count, failure_count
		FROM evaluation_reports
		ORDER BY created_at DESC
		LIMIT $1`

	var reports []*ports.StoredReport
	if err := r.db.SelectContext(ctx, &reports, query, limit); err != nil {
		return nil, errors.DatabaseError("failed to list evaluation reports", err)
	}
	return reports, nil
}

var _ ports.ReportRepository = (*ReportRepository)(nil)
