package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simeval/adapters/metrics"
	"simeval/domain/core"
	"simeval/domain/measurement"
	"simeval/internal/errors"
	"simeval/internal/evaluation"
	"simeval/internal/logging"
	"simeval/internal/registry"
	"simeval/ports"
)

const groundTruthCSV = `2017-08-01T10:00:00Z,CreateEvent,alice,alice/app
2017-08-01T12:00:00Z,PushEvent,alice,alice/app
2017-08-01T13:00:00Z,WatchEvent,bob,alice/app
2017-08-02T09:00:00Z,IssuesEvent,bob,alice/app,opened
2017-08-02T10:00:00Z,PushEvent,bob,alice/app
2017-08-02T11:00:00Z,PullRequestEvent,carol,alice/app,opened
2017-08-03T11:00:00Z,PullRequestEvent,carol,alice/app,merged
2017-08-03T13:00:00Z,PushEvent,dave,dave/lib
`

const simulationCSV = `2017-08-01T10:00:00Z,CreateEvent,alice,alice/app
2017-08-01T11:00:00Z,PushEvent,alice,alice/app
2017-08-02T09:00:00Z,PushEvent,bob,alice/app
2017-08-02T12:00:00Z,PushEvent,dave,dave/lib
2017-08-03T13:00:00Z,PushEvent,dave,dave/lib
`

type memoryReports struct {
	mu    sync.Mutex
	saved []*ports.StoredReport
}

func (m *memoryReports) Save(_ context.Context, r *ports.StoredReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, r)
	return nil
}

func (m *memoryReports) Get(_ context.Context, id core.RunID) (*ports.StoredReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.saved {
		if r.RunID == id {
			return r, nil
		}
	}
	return nil, errors.NotFound("report " + id.String())
}

func (m *memoryReports) List(context.Context, int) ([]*ports.StoredReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ports.StoredReport(nil), m.saved...), nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newService(t *testing.T, opts evaluation.Options, reports ports.ReportRepository, sources SourceOptions) *EvaluationService {
	t.Helper()
	reg, err := registry.Default(metrics.NewCatalog())
	require.NoError(t, err)
	opts.Logger = logging.Discard()
	svc := NewEvaluationService(evaluation.New(reg, opts), reports, sources)
	svc.log = logging.Discard()
	return svc
}

func TestEvaluate_BatchWritesAndPersists(t *testing.T) {
	dir := t.TempDir()
	gt := writeFile(t, dir, "gt.csv", groundTruthCSV)
	sim := writeFile(t, dir, "sim.csv", simulationCSV)
	out := filepath.Join(dir, "reports", "eval_output.json")

	reports := &memoryReports{}
	svc := newService(t, evaluation.Options{}, reports, SourceOptions{})
	filter := registry.Filter{Scale: measurement.ScalePopulation, EntityType: measurement.EntityUser}

	result, err := svc.Evaluate(context.Background(), EvaluationRequest{
		GroundTruthFile: gt,
		SimulationFile:  sim,
		OutputFile:      out,
		Filter:          filter,
	})
	require.NoError(t, err)

	want := svc.Engine().Registry().Select(filter)
	require.Len(t, result.Report.Entries, len(want))
	assert.True(t, result.Stored)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, result.JSON, written)

	var tree map[string]any
	require.NoError(t, json.Unmarshal(written, &tree))
	assert.Len(t, tree, len(want)+1)
	assert.Contains(t, tree, "eta")
	gini, ok := tree["user_gini_coef"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, gini, "metadata")
	assert.NotContains(t, gini["metadata"], "computation")

	require.Len(t, reports.saved, 1)
	assert.Equal(t, result.RunID, reports.saved[0].RunID)
	assert.Equal(t, len(want), reports.saved[0].MeasurementCount)
}

func TestEvaluate_SingleMeasurement(t *testing.T) {
	dir := t.TempDir()
	gt := writeFile(t, dir, "gt.csv", groundTruthCSV)
	sim := writeFile(t, dir, "sim.csv", simulationCSV)

	svc := newService(t, evaluation.Options{}, nil, SourceOptions{InterestedRepos: []string{"alice/app"}})
	result, err := svc.Evaluate(context.Background(), EvaluationRequest{
		GroundTruthFile: gt,
		SimulationFile:  sim,
		MeasurementID:   "repo_growth",
	})
	require.NoError(t, err)
	assert.False(t, result.Stored)

	require.Len(t, result.Report.Entries, 1)
	entry := result.Report.Entries[0]
	assert.Equal(t, "repo_growth", entry.ID)
	assert.Equal(t, []string{"alice/app"}, entry.Report.Entities())
	assert.Equal(t, "node", entry.Metadata["scale"])
}

func TestEvaluate_CommunitiesAndLocations(t *testing.T) {
	dir := t.TempDir()
	gt := writeFile(t, dir, "gt.csv", groundTruthCSV)
	sim := writeFile(t, dir, "sim.csv", simulationCSV)
	communities := writeFile(t, dir, "communities.yaml", "apps:\n  - alice/app\nlibs:\n  - dave/lib\n")
	locations := writeFile(t, dir, "locations.csv", "alice,NZ\nbob,BR\n")

	svc := newService(t, evaluation.Options{}, nil, SourceOptions{
		CommunitiesFile:   communities,
		UserLocationsFile: locations,
	})
	result, err := svc.Evaluate(context.Background(), EvaluationRequest{
		GroundTruthFile: gt,
		SimulationFile:  sim,
		Filter:          registry.Filter{Scale: measurement.ScaleCommunity},
	})
	require.NoError(t, err)

	geo, ok := result.Report.Entry("community_geo_locations")
	require.True(t, ok)
	require.False(t, geo.Failed())
	assert.Equal(t, []string{"apps", "libs"}, geo.Report.Entities())
}

func TestEvaluate_MissingLocationsAbort(t *testing.T) {
	dir := t.TempDir()
	gt := writeFile(t, dir, "gt.csv", groundTruthCSV)
	sim := writeFile(t, dir, "sim.csv", simulationCSV)

	svc := newService(t, evaluation.Options{Failure: evaluation.FailAbort}, nil, SourceOptions{})
	_, err := svc.Evaluate(context.Background(), EvaluationRequest{
		GroundTruthFile: gt,
		SimulationFile:  sim,
		Filter:          registry.Filter{Scale: measurement.ScaleCommunity},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeCapabilityNotFound, errors.GetCode(err))
	assert.Contains(t, err.Error(), "userGeoLocation")
}

func TestEvaluate_InvalidRequests(t *testing.T) {
	dir := t.TempDir()
	gt := writeFile(t, dir, "gt.csv", groundTruthCSV)
	svc := newService(t, evaluation.Options{}, nil, SourceOptions{})
	ctx := context.Background()

	_, err := svc.Evaluate(ctx, EvaluationRequest{GroundTruthFile: gt})
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.Evaluate(ctx, EvaluationRequest{GroundTruthFile: gt, SimulationFile: filepath.Join(dir, "missing.csv")})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	assert.True(t, strings.Contains(err.Error(), "simulation"), err.Error())

	_, err = svc.Evaluate(ctx, EvaluationRequest{GroundTruthFile: gt, SimulationFile: gt, MeasurementID: "nope"})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
