// Package evaluation runs registered measurements against a ground-truth
// and a simulation data source and assembles their metric reports.
package evaluation

import (
	"context"
	"fmt"
	"log/slog"

	"simeval/domain/core"
	"simeval/domain/measurement"
	"simeval/domain/report"
	"simeval/internal/errors"
	"simeval/internal/registry"
	"simeval/ports"
)

// Engine evaluates measurements from a registry. It holds no per-run state
// and may be shared between goroutines.
type Engine struct {
	registry *registry.Registry
	opts     Options
	log      *slog.Logger
}

// New creates an engine over reg.
func New(reg *registry.Registry, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{registry: reg, opts: opts, log: opts.Logger}
}

// Registry returns the registry the engine evaluates.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Options returns the effective engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// Outcome is the result of one measurement: both computed results and the
// metric report comparing them.
type Outcome struct {
	GroundTruth measurement.Result
	Simulation  measurement.Result
	Report      *report.MetricReport
}

// RunMeasurement computes measurement id on both sources and scores the
// simulation result against the ground-truth result with every bound metric.
func (e *Engine) RunMeasurement(ctx context.Context, groundTruth, simulation ports.DataSource, id string, opts ...RunOption) (*Outcome, error) {
	spec, err := e.registry.Lookup(id)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, groundTruth, simulation, spec, opts...)
}

func (e *Engine) run(ctx context.Context, groundTruth, simulation ports.DataSource, spec measurement.Spec, opts ...RunOption) (*Outcome, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	out := &Outcome{}
	if cfg.hasGroundTruth {
		out.GroundTruth = cfg.groundTruth
	} else {
		gt, err := compute(ctx, groundTruth, spec, "ground truth")
		if err != nil {
			return nil, err
		}
		out.GroundTruth = gt
	}
	sim, err := compute(ctx, simulation, spec, "simulation")
	if err != nil {
		return nil, err
	}
	out.Simulation = sim

	rep := report.NewMetricReport(spec.Scale, e.opts.Timing)
	if spec.Scale.Keyed() {
		err = e.scoreKeyed(spec, out.GroundTruth, out.Simulation, rep)
	} else {
		err = e.scoreScalar(spec, out.GroundTruth, out.Simulation, rep)
	}
	if err != nil {
		return nil, err
	}
	out.Report = rep
	return out, nil
}

func compute(ctx context.Context, source ports.DataSource, spec measurement.Spec, side string) (result measurement.Result, err error) {
	if source == nil {
		return nil, errors.CapabilityNotFound("computation", spec.Computation)
	}
	fn, ok := source.Computation(spec.Computation)
	if !ok {
		return nil, errors.Wrapf(errors.CapabilityNotFound("computation", spec.Computation), "%s source", side)
	}
	defer recoverAs(&err, fmt.Sprintf("%s computation %s", side, spec.Computation))

	result, err = fn(ctx, spec.Args)
	if err != nil {
		return nil, errors.ComputationFailure(fmt.Sprintf("%s computation %s", side, spec.Computation), err)
	}
	return result, nil
}

func (e *Engine) scoreScalar(spec measurement.Spec, gt, sim any, rep *report.MetricReport) error {
	scores := rep.Aggregate()
	missing := measurement.IsMissing(gt) || measurement.IsMissing(sim)
	for _, b := range spec.Metrics {
		sw := core.StartStopwatch(e.opts.Clock)
		var score *float64
		if !missing {
			v, err := apply(b, gt, sim)
			if err != nil {
				return err
			}
			score = &v
		}
		scores.Record(b.Name, score, sw.Elapsed())
	}
	return nil
}

func (e *Engine) scoreKeyed(spec measurement.Spec, gt, sim any, rep *report.MetricReport) error {
	gtKeyed, err := asKeyed(gt, "ground truth")
	if err != nil {
		return err
	}
	simKeyed, err := asKeyed(sim, "simulation")
	if err != nil {
		return err
	}

	keys := gtKeyed.Keys()
	for _, key := range keys {
		rep.Seed(key)
		if rendered := rep.RenderedKey(key); rendered != key {
			e.log.Warn("entity key collides with a report field",
				"measurement", spec.ID, "key", key, "rendered", rendered)
		}
	}
	for _, b := range spec.Metrics {
		for _, key := range keys {
			sw := core.StartStopwatch(e.opts.Clock)
			scores, _ := rep.Entity(key)

			gv, _ := gtKeyed.Get(key)
			sv, inSim := simKeyed.Get(key)
			if !inSim || measurement.IsMissing(gv) || measurement.IsMissing(sv) {
				e.log.Debug("missing value", "measurement", spec.ID, "key", key, "metric", b.Name)
				scores.Record(b.Name, nil, sw.Elapsed())
				continue
			}
			v, err := apply(b, gv, sv)
			if err != nil {
				return errors.Wrapf(err, "key %s", key)
			}
			scores.Record(b.Name, &v, sw.Elapsed())
		}
	}
	return nil
}

func apply(b measurement.Binding, gt, sim any) (score float64, err error) {
	if !b.Resolved() {
		return 0, errors.CapabilityNotFound("metric", b.Metric)
	}
	defer recoverAs(&err, "metric "+b.Name)

	score, err = b.Fn(gt, sim)
	if err != nil {
		return 0, errors.ComputationFailure("metric "+b.Name, err)
	}
	return score, nil
}

// asKeyed checks the shape of a node or community result. A nil result is
// an empty mapping.
func asKeyed(v any, side string) (*measurement.Keyed, error) {
	switch k := v.(type) {
	case *measurement.Keyed:
		return k, nil
	case nil:
		return measurement.NewKeyed(), nil
	}
	return nil, errors.ComputationFailure(
		fmt.Sprintf("%s result shape mismatch", side),
		fmt.Errorf("keyed scale expects an entity-keyed mapping, got %T", v),
	)
}

// recoverAs turns a panic in a computation or metric into a
// COMPUTATION_FAILURE stored in *err.
func recoverAs(err *error, what string) {
	if r := recover(); r != nil {
		*err = errors.ComputationFailure(what, fmt.Errorf("panic: %v", r))
	}
}
