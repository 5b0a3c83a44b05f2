package measurement

// MetricFunc scores how close a simulation value is to its ground-truth
// counterpart.
type MetricFunc func(groundTruth, simulation any) (float64, error)

// Join selects how two differently indexed series are aligned.
type Join string

const (
	JoinInner Join = "inner"
	JoinOuter Join = "outer"
)

// MetricConfig holds the configuration a metric is bound with at
// registration time. Zero values mean the metric's default.
type MetricConfig struct {
	// Discrete switches distribution metrics to value frequencies instead
	// of binned densities.
	Discrete bool `yaml:"discrete,omitempty" json:"discrete,omitempty"`
	// P is the rank-biased overlap persistence.
	P float64 `yaml:"p,omitempty" json:"p,omitempty"`
	Join Join `yaml:"join,omitempty" json:"join,omitempty"`
	// Index selects the influence score column.
	Index int `yaml:"idx,omitempty" json:"idx,omitempty"`
	// Weight is the persistence used when ranking influence edges.
	Weight float64 `yaml:"wt,omitempty" json:"wt,omitempty"`
	// Cutoff limits how many ranked influence edges are compared.
	Cutoff int `yaml:"ct,omitempty" json:"ct,omitempty"`
}

// Binding attaches one metric, with fixed configuration, to a measurement.
type Binding struct {
	// Name is the key the score is reported under.
	Name string `yaml:"name"`
	// Metric is the catalog name of the comparison function.
	Metric  string       `yaml:"metric"`
	Display string       `yaml:"display,omitempty"`
	Config  MetricConfig `yaml:",inline"`

	Fn MetricFunc `yaml:"-"`
}

// Bind is shorthand for a binding whose report key equals the metric name.
func Bind(metric string, cfg MetricConfig) Binding {
	return Binding{Name: metric, Metric: metric, Config: cfg}
}

// DisplayName is the name a binding is shown under in reports.
func (b Binding) DisplayName() string {
	if b.Display != "" {
		return b.Display
	}
	return b.Metric
}

// Resolved reports whether the binding carries a metric function.
func (b Binding) Resolved() bool {
	return b.Fn != nil
}
