package ports

import (
	"context"
	"time"

	"simeval/domain/core"
)

// StoredReport is a serialised batch report kept for later retrieval.
type StoredReport struct {
	RunID            core.RunID `db:"run_id" json:"run_id"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	MeasurementCount int        `db:"measurement_count" json:"measurement_count"`
	FailureCount     int        `db:"failure_count" json:"failure_count"`
	Report           []byte     `db:"report" json:"-"`
}

// ReportRepository persists serialised batch reports.
type ReportRepository interface {
	Save(ctx context.Context, report *StoredReport) error
	Get(ctx context.Context, runID core.RunID) (*StoredReport, error)
	List(ctx context.Context, limit int) ([]*StoredReport, error)
}
