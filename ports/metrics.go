package ports

import "simeval/domain/measurement"

// MetricCatalog resolves a metric name plus its bound configuration to a
// comparison function.
type MetricCatalog interface {
	Resolve(metric string, cfg measurement.MetricConfig) (measurement.MetricFunc, error)
	Names() []string
}
