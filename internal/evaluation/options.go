package evaluation

import (
	"fmt"
	"log/slog"

	"simeval/domain/core"
	"simeval/domain/report"
	"simeval/internal/logging"
)

// FailurePolicy decides what a batch does when one measurement fails.
type FailurePolicy string

const (
	// FailIsolate records an error marker in the failing measurement's slot
	// and carries on with the rest of the batch.
	FailIsolate FailurePolicy = "isolate"
	// FailAbort stops the batch at the first failure and returns it.
	FailAbort FailurePolicy = "abort"
)

// ParseFailurePolicy parses a failure policy; empty means FailIsolate.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "":
		return FailIsolate, nil
	case FailIsolate, FailAbort:
		return FailurePolicy(s), nil
	}
	return "", fmt.Errorf("unknown failure policy %q (want isolate or abort)", s)
}

// Options configure an Engine. The zero value is usable.
type Options struct {
	Timing  report.TimingMode
	Failure FailurePolicy
	// Workers bounds how many measurements a batch evaluates at once.
	// Values below 2 run the batch sequentially.
	Workers int
	Clock   core.Clock
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Timing == "" {
		o.Timing = report.TimingPerMetric
	}
	if o.Failure == "" {
		o.Failure = FailIsolate
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Logger == nil {
		o.Logger = logging.New("evaluation")
	}
	return o
}

// RunOption adjusts a single RunMeasurement call.
type RunOption func(*runConfig)

type runConfig struct {
	groundTruth    any
	hasGroundTruth bool
}

// WithGroundTruth supplies a precomputed ground-truth result. It is used
// verbatim and the ground-truth source is not queried.
func WithGroundTruth(result any) RunOption {
	return func(c *runConfig) {
		c.groundTruth = result
		c.hasGroundTruth = true
	}
}
