package metrics

import (
	"fmt"
	"sort"

	"simeval/domain/measurement"
	"simeval/internal/errors"
)

// Catalog metric names.
const (
	AbsoluteDifference = "absolute_difference"
	RMSE               = "rmse"
	R2                 = "r2"
	KSTest             = "ks_test"
	JSDivergence       = "js_divergence"
	DTW                = "dtw"
	RBO                = "rbo"
	RBOForTE           = "rbo_for_te"
)

// Factory binds a metric to its configuration, rejecting configuration the
// metric cannot honour.
type Factory func(cfg measurement.MetricConfig) (measurement.MetricFunc, error)

// Catalog resolves metric names to comparison functions.
type Catalog struct {
	factories map[string]Factory
}

// NewCatalog creates a catalog holding every built-in metric.
func NewCatalog() *Catalog {
	c := &Catalog{factories: make(map[string]Factory)}
	c.Register(AbsoluteDifference, fixed(absoluteDifference))
	c.Register(RMSE, newRMSE)
	c.Register(R2, newR2)
	c.Register(KSTest, fixed(ksStatistic))
	c.Register(JSDivergence, newJSDivergence)
	c.Register(DTW, fixed(dtwDistance))
	c.Register(RBO, newRBO)
	c.Register(RBOForTE, newRBOForTE)
	return c
}

// Register adds or replaces a metric factory.
func (c *Catalog) Register(name string, f Factory) {
	c.factories[name] = f
}

// Resolve implements ports.MetricCatalog.
func (c *Catalog) Resolve(name string, cfg measurement.MetricConfig) (measurement.MetricFunc, error) {
	f, ok := c.factories[name]
	if !ok {
		return nil, errors.CapabilityNotFound("metric", name)
	}
	fn, err := f(cfg)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("metric %s: %w", name, err))
	}
	return fn, nil
}

// Names returns the registered metric names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.factories))
	for n := range c.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func fixed(fn measurement.MetricFunc) Factory {
	return func(measurement.MetricConfig) (measurement.MetricFunc, error) {
		return fn, nil
	}
}

func checkJoin(j measurement.Join) (measurement.Join, error) {
	switch j {
	case "":
		return measurement.JoinInner, nil
	case measurement.JoinInner, measurement.JoinOuter:
		return j, nil
	}
	return "", fmt.Errorf("unknown join %q", j)
}

func checkPersistence(p, def float64) (float64, error) {
	if p == 0 {
		return def, nil
	}
	if p <= 0 || p >= 1 {
		return 0, fmt.Errorf("persistence %v outside (0, 1)", p)
	}
	return p, nil
}
