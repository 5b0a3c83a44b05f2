// Package registry holds the immutable table of measurement definitions the
// evaluation engine runs.
package registry

import (
	"fmt"

	"simeval/domain/measurement"
	"simeval/domain/report"
	"simeval/internal/errors"
	"simeval/ports"
)

// Table is a named group of measurement specs.
type Table struct {
	Name  string
	Specs []measurement.Spec
}

// Builder collects tables and builds a Registry once.
type Builder struct {
	tables []Table
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a table. Tables are concatenated in the order they are added.
func (b *Builder) Add(tables ...Table) *Builder {
	b.tables = append(b.tables, tables...)
	return b
}

// Build validates every spec, rejects duplicate ids and resolves every metric
// binding through catalog.
func (b *Builder) Build(catalog ports.MetricCatalog) (*Registry, error) {
	r := &Registry{
		specs:  make(map[string]measurement.Spec),
		origin: make(map[string]string),
	}
	for _, table := range b.tables {
		for _, spec := range table.Specs {
			if err := spec.Validate(); err != nil {
				return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("table %s: %w", table.Name, err))
			}
			if report.IsReservedKey(spec.ID) {
				return nil, errors.ConfigInvalid(fmt.Sprintf("table %s: measurement id %q is reserved", table.Name, spec.ID))
			}
			if prev, dup := r.origin[spec.ID]; dup {
				return nil, errors.ConfigInvalid(fmt.Sprintf("measurement %q defined in table %s is already defined in table %s", spec.ID, table.Name, prev))
			}

			resolved, err := resolveBindings(spec, catalog)
			if err != nil {
				return nil, errors.Wrapf(err, "table %s: measurement %s", table.Name, spec.ID)
			}
			r.order = append(r.order, spec.ID)
			r.specs[spec.ID] = resolved
			r.origin[spec.ID] = table.Name
		}
	}
	return r, nil
}

func resolveBindings(spec measurement.Spec, catalog ports.MetricCatalog) (measurement.Spec, error) {
	bindings := make([]measurement.Binding, len(spec.Metrics))
	for i, binding := range spec.Metrics {
		if report.IsReservedKey(binding.Name) {
			return spec, errors.ConfigInvalid(fmt.Sprintf("metric binding name %q is reserved", binding.Name))
		}
		fn, err := catalog.Resolve(binding.Metric, binding.Config)
		if err != nil {
			return spec, err
		}
		binding.Fn = fn
		bindings[i] = binding
	}
	spec.Metrics = bindings
	spec.Args.EventTypes = append([]string(nil), spec.Args.EventTypes...)
	return spec, nil
}

// Registry maps measurement ids to their specs in insertion order. It is
// read-only after Build and safe for concurrent use.
type Registry struct {
	order  []string
	specs  map[string]measurement.Spec
	origin map[string]string
}

// Filter selects measurements; zero fields match everything.
type Filter struct {
	Scale      measurement.Scale
	EntityType measurement.EntityType
}

// Matches reports whether spec passes the filter.
func (f Filter) Matches(spec measurement.Spec) bool {
	return (f.Scale == "" || spec.Scale == f.Scale) &&
		(f.EntityType == "" || spec.EntityType == f.EntityType)
}

// Lookup returns the spec of id.
func (r *Registry) Lookup(id string) (measurement.Spec, error) {
	spec, ok := r.specs[id]
	if !ok {
		return measurement.Spec{}, errors.NotFound(fmt.Sprintf("measurement %q", id))
	}
	spec.Metrics = append([]measurement.Binding(nil), spec.Metrics...)
	return spec, nil
}

// Select returns the ids matching f, in registry order.
func (r *Registry) Select(f Filter) []string {
	var ids []string
	for _, id := range r.order {
		if f.Matches(r.specs[id]) {
			ids = append(ids, id)
		}
	}
	return ids
}

// IDs returns every id in registry order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of measurements.
func (r *Registry) Len() int {
	return len(r.order)
}

// TableOf returns the name of the table that defined id.
func (r *Registry) TableOf(id string) string {
	return r.origin[id]
}

// Computations returns the distinct computation names the selected
// measurements need, in first-use order.
func (r *Registry) Computations(f Filter) []string {
	seen := make(map[string]bool)
	var names []string
	for _, id := range r.Select(f) {
		name := r.specs[id].Computation
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
