package evaluation

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simeval/domain/measurement"
	"simeval/domain/report"
	"simeval/internal/errors"
	"simeval/internal/registry"
	"simeval/ports"
)

func twoMeasurementFixture(t *testing.T) (*registry.Registry, ports.ComputationTable, ports.ComputationTable) {
	t.Helper()
	reg := newRegistry(t,
		spec("user_gini", measurement.ScalePopulation, "gini", bind("absolute_difference")),
		spec("user_counts", measurement.ScaleNode, "counts", bind("absolute_difference")),
	)
	gt := ports.ComputationTable{
		"gini":   constant(0.5),
		"counts": constant(measurement.KeyedOf([]string{"u1"}, map[string]any{"u1": 3.0})),
	}
	sim := ports.ComputationTable{
		"gini":   constant(0.25),
		"counts": constant(measurement.KeyedOf([]string{"u1"}, map[string]any{"u1": 1.0})),
	}
	return reg, gt, sim
}

func TestRunAll_ReportLayout(t *testing.T) {
	reg, gt, sim := twoMeasurementFixture(t)

	batch, err := newEngine(reg, Options{Timing: report.TimingLast}).RunAll(context.Background(), gt, sim, registry.Filter{})
	require.NoError(t, err)
	assert.False(t, batch.RunID.IsEmpty())

	tree := batch.Tree()
	assert.Len(t, tree, 3)
	assert.Equal(t, "00h00m00s", tree[report.KeyETA])

	gini := tree["user_gini"].(map[string]any)
	assert.Equal(t, 0.25, gini["absolute_difference"])
	assert.Equal(t, "00h00m00s", gini[report.KeyETA])

	counts := tree["user_counts"].(map[string]any)
	assert.Equal(t, map[string]any{"absolute_difference": 2.0, "eta": "00h00m00s"}, counts["u1"])

	for _, id := range []string{"user_gini", "user_counts"} {
		md := tree[id].(map[string]any)[report.KeyMetadata].(map[string]any)
		assert.Equal(t, "q-"+id, md["question_ref"])
		assert.Equal(t, "user", md["entity_type"])
		assert.Contains(t, md, "computation_args")
		assert.Contains(t, md, "metrics")
		for _, v := range md {
			assert.NotEqual(t, "gini", v)
			assert.NotEqual(t, "counts", v)
		}
	}
}

func TestRunAll_SelectionOrderAndFilter(t *testing.T) {
	reg, gt, sim := twoMeasurementFixture(t)
	engine := newEngine(reg, Options{})

	batch, err := engine.RunAll(context.Background(), gt, sim, registry.Filter{})
	require.NoError(t, err)
	var ids []string
	for _, e := range batch.Entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"user_gini", "user_counts"}, ids)

	batch, err = engine.RunAll(context.Background(), gt, sim, registry.Filter{Scale: measurement.ScaleNode})
	require.NoError(t, err)
	require.Len(t, batch.Entries, 1)
	assert.Equal(t, "user_counts", batch.Entries[0].ID)
}

func TestRunAll_IsolatesFailures(t *testing.T) {
	reg := newRegistry(t,
		spec("first", measurement.ScalePopulation, "ok", bind("absolute_difference")),
		spec("broken", measurement.ScalePopulation, "broken", bind("absolute_difference")),
		spec("panics", measurement.ScalePopulation, "panics", bind("absolute_difference")),
		spec("absent", measurement.ScalePopulation, "absent", bind("absolute_difference")),
		spec("last", measurement.ScalePopulation, "ok", bind("absolute_difference")),
	)
	source := ports.ComputationTable{
		"ok": constant(1.0),
		"broken": func(context.Context, measurement.Args) (measurement.Result, error) {
			return nil, stderrors.New("no events in window")
		},
		"panics": func(context.Context, measurement.Args) (measurement.Result, error) {
			var m map[string]int
			m["x"]++
			return nil, nil
		},
	}

	batch, err := newEngine(reg, Options{Failure: FailIsolate}).RunAll(context.Background(), source, source, registry.Filter{})
	require.NoError(t, err)
	require.Len(t, batch.Entries, 5)

	failed := batch.Failures()
	require.Len(t, failed, 3)
	assert.Equal(t, errors.CodeComputationFailure, failed[0].Failure.Code)
	assert.Contains(t, failed[0].Failure.Message, "no events in window")
	assert.Equal(t, errors.CodeComputationFailure, failed[1].Failure.Code)
	assert.Contains(t, failed[1].Failure.Message, "panic")
	assert.Equal(t, errors.CodeCapabilityNotFound, failed[2].Failure.Code)

	last, ok := batch.Entry("last")
	require.True(t, ok)
	assert.False(t, last.Failed())

	tree := batch.Tree()
	broken := tree["broken"].(map[string]any)
	assert.Equal(t, errors.CodeComputationFailure, broken[report.KeyError].(map[string]any)["code"])
	assert.Contains(t, broken, report.KeyMetadata)
}

func TestRunAll_AbortReturnsFirstFailure(t *testing.T) {
	reg := newRegistry(t,
		spec("first", measurement.ScalePopulation, "ok", bind("absolute_difference")),
		spec("broken", measurement.ScalePopulation, "broken", bind("absolute_difference")),
		spec("last", measurement.ScalePopulation, "ok", bind("absolute_difference")),
	)
	var okCalls int32
	source := ports.ComputationTable{
		"ok": func(context.Context, measurement.Args) (measurement.Result, error) {
			atomic.AddInt32(&okCalls, 1)
			return 1.0, nil
		},
		"broken": func(context.Context, measurement.Args) (measurement.Result, error) {
			return nil, stderrors.New("no events in window")
		},
	}

	batch, err := newEngine(reg, Options{Failure: FailAbort}).RunAll(context.Background(), source, source, registry.Filter{})
	require.Error(t, err)
	assert.Nil(t, batch)
	assert.True(t, errors.HasCode(err, errors.CodeComputationFailure))
	assert.Contains(t, err.Error(), "measurement broken")
	assert.Equal(t, int32(2), atomic.LoadInt32(&okCalls), "only the first measurement ran on both sides")
}

func TestRunAll_AbortPreflight(t *testing.T) {
	reg, gt, _ := twoMeasurementFixture(t)
	var calls int32
	counting := func(context.Context, measurement.Args) (measurement.Result, error) {
		atomic.AddInt32(&calls, 1)
		return 0.1, nil
	}
	sim := ports.ComputationTable{"gini": counting}

	engine := newEngine(reg, Options{Failure: FailAbort})
	assert.Equal(t, []string{"counts"}, engine.Validate(sim, registry.Filter{}))
	assert.Empty(t, engine.Validate(gt, registry.Filter{}))

	_, err := engine.RunAll(context.Background(), gt, sim, registry.Filter{})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeCapabilityNotFound))
	assert.Contains(t, err.Error(), "simulation lacks counts")
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestRunAll_ParallelKeepsOrder(t *testing.T) {
	var specs []measurement.Spec
	for i := 0; i < 20; i++ {
		specs = append(specs, spec(fmt.Sprintf("m%02d", i), measurement.ScalePopulation, "value", bind("absolute_difference")))
	}
	reg := newRegistry(t, specs...)
	gt := ports.ComputationTable{"value": constant(2.0)}
	sim := ports.ComputationTable{"value": constant(1.5)}

	sequential, err := newEngine(reg, Options{Workers: 1}).RunAll(context.Background(), gt, sim, registry.Filter{})
	require.NoError(t, err)
	parallel, err := newEngine(reg, Options{Workers: 4}).RunAll(context.Background(), gt, sim, registry.Filter{})
	require.NoError(t, err)

	require.Len(t, parallel.Entries, len(sequential.Entries))
	for i := range sequential.Entries {
		assert.Equal(t, sequential.Entries[i].ID, parallel.Entries[i].ID)
		assert.Equal(t, sequential.Entries[i].Report.Tree(), parallel.Entries[i].Report.Tree())
	}
}

func TestRunAll_CancelledContext(t *testing.T) {
	reg, gt, sim := twoMeasurementFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 3} {
		batch, err := newEngine(reg, Options{Workers: workers}).RunAll(ctx, gt, sim, registry.Filter{})
		require.Error(t, err)
		assert.Nil(t, batch)
		assert.ErrorIs(t, err, context.Canceled)
	}
}
