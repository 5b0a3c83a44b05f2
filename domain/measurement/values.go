package measurement

import (
	"math"
	"reflect"
	"sort"
)

// Sample is an unordered bag of observations, e.g. per-user counts.
type Sample []float64

// Series is a label-indexed sequence such as a daily timeline. Labels are
// unique and kept in order.
type Series struct {
	Labels []string
	Values []float64
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Labels) }

// Lookup returns a label → value index.
func (s Series) Lookup() map[string]float64 {
	m := make(map[string]float64, len(s.Labels))
	for i, l := range s.Labels {
		m[l] = s.Values[i]
	}
	return m
}

// SeriesFromCounts builds a series with sorted labels.
func SeriesFromCounts(counts map[string]float64) Series {
	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = counts[l]
	}
	return Series{Labels: labels, Values: values}
}

// Ranking is an ordered list of entity ids, best first.
type Ranking []string

// InfluenceEdge is one directed pair with its scores. Score columns are
// fixed per computation, e.g. [transfer entropy, shared activity].
type InfluenceEdge struct {
	Source string
	Target string
	Scores []float64
}

// Influence is the set of pairwise influence edges of a te measurement.
type Influence []InfluenceEdge

// IsMissing reports whether v is null or a NaN number. Missing values are
// never handed to a metric.
func IsMissing(v any) bool {
	if v == nil {
		return true
	}
	switch x := v.(type) {
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
