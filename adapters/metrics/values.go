package metrics

import (
	"fmt"
	"math"
	"sort"

	"simeval/domain/measurement"
)

func asScalar(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	}
	return 0, false
}

// asValues flattens any numeric measurement value to its observations.
func asValues(v any) ([]float64, error) {
	switch x := v.(type) {
	case measurement.Sample:
		return dropNaN(x), nil
	case []float64:
		return dropNaN(x), nil
	case measurement.Series:
		return dropNaN(x.Values), nil
	}
	if s, ok := asScalar(v); ok {
		return dropNaN([]float64{s}), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func dropNaN(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) {
			out = append(out, x)
		}
	}
	return out
}

func asRanking(v any) ([]string, error) {
	switch x := v.(type) {
	case measurement.Ranking:
		return x, nil
	case []string:
		return x, nil
	}
	return nil, fmt.Errorf("expected a ranking, got %T", v)
}

func asInfluence(v any) (measurement.Influence, error) {
	switch x := v.(type) {
	case measurement.Influence:
		return x, nil
	case []measurement.InfluenceEdge:
		return x, nil
	}
	return nil, fmt.Errorf("expected influence edges, got %T", v)
}

// align pairs two values point by point. Series are matched on labels;
// other samples are compared as descending-sorted vectors. An outer join
// fills unmatched points with zero, an inner join drops them.
func align(gt, sim any, join measurement.Join) ([]float64, []float64, error) {
	gs, gok := gt.(measurement.Series)
	ss, sok := sim.(measurement.Series)
	if gok && sok {
		a, b := alignSeries(gs, ss, join)
		return a, b, nil
	}
	if gok != sok {
		return nil, nil, fmt.Errorf("cannot align %T with %T", gt, sim)
	}

	a, err := asValues(gt)
	if err != nil {
		return nil, nil, err
	}
	b, err := asValues(sim)
	if err != nil {
		return nil, nil, err
	}
	a = sortedDesc(a)
	b = sortedDesc(b)
	if join == measurement.JoinOuter {
		for len(a) < len(b) {
			a = append(a, 0)
		}
		for len(b) < len(a) {
			b = append(b, 0)
		}
		return a, b, nil
	}
	n := min(len(a), len(b))
	return a[:n], b[:n], nil
}

func alignSeries(gt, sim measurement.Series, join measurement.Join) ([]float64, []float64) {
	simByLabel := sim.Lookup()
	var a, b []float64
	for i, label := range gt.Labels {
		sv, ok := simByLabel[label]
		if !ok {
			if join != measurement.JoinOuter {
				continue
			}
			sv = 0
		}
		a = append(a, gt.Values[i])
		b = append(b, sv)
	}
	if join == measurement.JoinOuter {
		gtByLabel := gt.Lookup()
		for i, label := range sim.Labels {
			if _, ok := gtByLabel[label]; !ok {
				a = append(a, 0)
				b = append(b, sim.Values[i])
			}
		}
	}
	return a, b
}

func sortedDesc(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}
