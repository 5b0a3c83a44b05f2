package migration

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simeval/internal/errors"
)

type recordingExecer struct {
	statements []string
	failOn     int
}

func (r *recordingExecer) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	r.statements = append(r.statements, query)
	if r.failOn == len(r.statements) {
		return nil, fmt.Errorf("relation already locked")
	}
	return nil, nil
}

func TestRunner_CreatesSchema(t *testing.T) {
	db := &recordingExecer{}
	require.NoError(t, NewRunner().Run(context.Background(), db))

	require.Len(t, db.statements, 2)
	assert.Contains(t, db.statements[0], "CREATE TABLE IF NOT EXISTS evaluation_reports")
	assert.Contains(t, db.statements[0], "report JSONB NOT NULL")
	assert.Contains(t, db.statements[1], "idx_evaluation_reports_created_at")
}

func TestRunner_StopsOnFirstFailure(t *testing.T) {
	db := &recordingExecer{failOn: 1}
	err := NewRunner().Run(context.Background(), db)

	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
	assert.Contains(t, err.Error(), "evaluation_reports")
	assert.Len(t, db.statements, 1)
}

func TestRunner_Version(t *testing.T) {
	assert.Equal(t, "1.0.0", NewRunner().Version())
}
