package ports

import (
	"context"

	"simeval/domain/measurement"
)

// Computation derives one measurement result from an event stream.
type Computation func(ctx context.Context, args measurement.Args) (measurement.Result, error)

// DataSource exposes the computations it supports by name. Sources are
// read-only from the engine's point of view.
type DataSource interface {
	Computation(name string) (Computation, bool)
}

// ComputationTable is a DataSource backed by an explicit name → function
// table.
type ComputationTable map[string]Computation

// Computation implements DataSource.
func (t ComputationTable) Computation(name string) (Computation, bool) {
	c, ok := t[name]
	return c, ok
}
