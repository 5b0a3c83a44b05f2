package evaluation

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"simeval/domain/core"
	"simeval/domain/report"
	"simeval/internal/errors"
	"simeval/internal/registry"
	"simeval/ports"
)

// Validate returns the computations the filtered measurements need that
// source does not provide.
func (e *Engine) Validate(source ports.DataSource, f registry.Filter) []string {
	var missing []string
	for _, name := range e.registry.Computations(f) {
		if source == nil {
			missing = append(missing, name)
			continue
		}
		if _, ok := source.Computation(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// RunAll evaluates every measurement matching f and assembles a batch report
// in selection order. Under FailIsolate a failing measurement gets an error
// marker and RunAll returns a nil error; under FailAbort the first failure is
// returned with no report.
func (e *Engine) RunAll(ctx context.Context, groundTruth, simulation ports.DataSource, f registry.Filter) (*report.BatchReport, error) {
	ids := e.registry.Select(f)
	batch := &report.BatchReport{RunID: core.NewRunID()}
	sw := core.StartStopwatch(e.opts.Clock)

	if e.opts.Failure == FailAbort {
		if err := e.preflight(groundTruth, simulation, f); err != nil {
			e.log.Error("batch preflight failed", "error", err)
			return nil, err
		}
	}

	e.log.Info("batch started",
		"run_id", batch.RunID.String(),
		"measurements", len(ids),
		"workers", e.opts.Workers,
		"failure_policy", string(e.opts.Failure))

	entries := make([]report.Entry, len(ids))
	runOne := func(ctx context.Context, i int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entry, err := e.runEntry(ctx, groundTruth, simulation, ids[i])
		if err != nil {
			return err
		}
		entries[i] = entry
		return nil
	}

	if e.opts.Workers > 1 {
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(e.opts.Workers)
		for i := range ids {
			i := i
			g.Go(func() error {
				return runOne(gCtx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, e.batchError(err)
		}
	} else {
		for i := range ids {
			if err := runOne(ctx, i); err != nil {
				return nil, e.batchError(err)
			}
		}
	}

	batch.Entries = entries
	batch.Elapsed = sw.Elapsed()
	e.log.Info("batch finished",
		"run_id", batch.RunID.String(),
		"measurements", len(entries),
		"failures", len(batch.Failures()),
		"eta", core.FormatElapsed(batch.Elapsed))
	return batch, nil
}

// runEntry evaluates one measurement into its batch slot. Under FailIsolate
// only context errors escape; every other failure becomes a marker.
func (e *Engine) runEntry(ctx context.Context, groundTruth, simulation ports.DataSource, id string) (report.Entry, error) {
	spec, err := e.registry.Lookup(id)
	if err != nil {
		return report.Entry{}, err
	}
	entry := report.Entry{ID: id, Metadata: spec.Metadata()}

	sw := core.StartStopwatch(e.opts.Clock)
	out, err := e.run(ctx, groundTruth, simulation, spec)
	if err != nil {
		if ctx.Err() != nil {
			return entry, ctx.Err()
		}
		if e.opts.Failure == FailAbort {
			e.log.Error("measurement failed", "measurement", id, "code", errors.GetCode(err), "error", err)
			return entry, errors.Wrapf(err, "measurement %s", id)
		}
		e.log.Warn("measurement failed", "measurement", id, "code", errors.GetCode(err), "error", err)
		entry.Failure = &report.Failure{Code: errors.GetCode(err), Message: err.Error()}
		return entry, nil
	}

	entry.Report = out.Report
	e.log.Info("measurement evaluated",
		"measurement", id,
		"scale", string(spec.Scale),
		"eta", core.FormatElapsed(sw.Elapsed()))
	return entry, nil
}

func (e *Engine) preflight(groundTruth, simulation ports.DataSource, f registry.Filter) error {
	var problems []string
	if missing := e.Validate(groundTruth, f); len(missing) > 0 {
		problems = append(problems, "ground truth lacks "+strings.Join(missing, ", "))
	}
	if missing := e.Validate(simulation, f); len(missing) > 0 {
		problems = append(problems, "simulation lacks "+strings.Join(missing, ", "))
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.New(errors.CodeCapabilityNotFound, fmt.Sprintf("computations not provided: %s", strings.Join(problems, "; ")))
}

func (e *Engine) batchError(err error) error {
	if errors.IsAppError(err) {
		return err
	}
	return errors.Wrap(err, "batch cancelled")
}
