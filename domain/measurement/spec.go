package measurement

import (
	"fmt"
	"strings"
)

// Spec identifies one evaluable quantity: what to compute on each event
// stream and which metrics compare the two results.
type Spec struct {
	ID          string         `yaml:"id" json:"id"`
	QuestionRef string         `yaml:"question" json:"question_ref"`
	Scale       Scale          `yaml:"scale" json:"scale"`
	EntityType  EntityType     `yaml:"node_type" json:"entity_type"`
	Computation string         `yaml:"measurement" json:"-"`
	Args        Args           `yaml:"measurement_args" json:"computation_args"`
	Metrics     []Binding      `yaml:"metrics" json:"metrics"`
	Filters     map[string]any `yaml:"filters,omitempty" json:"filters,omitempty"`
}

// Validate checks the fields every spec must carry.
func (s Spec) Validate() error {
	var problems []string
	if strings.TrimSpace(s.ID) == "" {
		problems = append(problems, "id is required")
	}
	if !s.Scale.Valid() {
		problems = append(problems, fmt.Sprintf("scale %q is invalid", s.Scale))
	}
	if !s.EntityType.Valid() {
		problems = append(problems, fmt.Sprintf("entity type %q is invalid", s.EntityType))
	}
	if strings.TrimSpace(s.Computation) == "" {
		problems = append(problems, "computation name is required")
	}
	if len(s.Metrics) == 0 {
		problems = append(problems, "at least one metric binding is required")
	}
	seen := make(map[string]bool, len(s.Metrics))
	for _, b := range s.Metrics {
		if strings.TrimSpace(b.Name) == "" || strings.TrimSpace(b.Metric) == "" {
			problems = append(problems, "metric bindings need a name and a metric")
			continue
		}
		if seen[b.Name] {
			problems = append(problems, fmt.Sprintf("metric binding %q is bound twice", b.Name))
		}
		seen[b.Name] = true
	}
	if len(problems) > 0 {
		return fmt.Errorf("measurement %q: %s", s.ID, strings.Join(problems, "; "))
	}
	return nil
}

// Metadata returns the pass-through fields reported next to a measurement's
// scores. The computation name is not included.
func (s Spec) Metadata() map[string]any {
	metrics := make(map[string]any, len(s.Metrics))
	for _, b := range s.Metrics {
		metrics[b.Name] = b
	}
	md := map[string]any{
		"question_ref":     s.QuestionRef,
		"scale":            string(s.Scale),
		"entity_type":      string(s.EntityType),
		"computation_args": s.Args.Map(),
		"metrics":          metrics,
	}
	if len(s.Filters) > 0 {
		md["filters"] = s.Filters
	}
	return md
}

// Args are the named arguments handed to a computation.
type Args struct {
	EventTypes []string   `yaml:"eventType,omitempty"`
	NodeType   EntityType `yaml:"nodeType,omitempty"`
	K          int        `yaml:"k,omitempty"`
	Weekday    bool       `yaml:"weekday,omitempty"`
}

// Map renders the set arguments under their wire names.
func (a Args) Map() map[string]any {
	m := make(map[string]any)
	if len(a.EventTypes) > 0 {
		m["eventType"] = append([]string(nil), a.EventTypes...)
	}
	if a.NodeType != "" {
		m["nodeType"] = string(a.NodeType)
	}
	if a.K > 0 {
		m["k"] = a.K
	}
	if a.Weekday {
		m["weekday"] = true
	}
	return m
}

// HasEventType reports whether t passes the event-type filter. An empty
// filter passes everything.
func (a Args) HasEventType(t string) bool {
	if len(a.EventTypes) == 0 {
		return true
	}
	for _, et := range a.EventTypes {
		if et == t {
			return true
		}
	}
	return false
}
