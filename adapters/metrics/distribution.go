package metrics

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"simeval/domain/measurement"
)

// ksStatistic is the two-sample Kolmogorov–Smirnov distance.
func ksStatistic(gt, sim any) (float64, error) {
	a, err := asValues(gt)
	if err != nil {
		return 0, err
	}
	b, err := asValues(sim)
	if err != nil {
		return 0, err
	}
	if len(a) == 0 || len(b) == 0 {
		return math.NaN(), nil
	}
	sort.Float64s(a)
	sort.Float64s(b)
	return stat.KolmogorovSmirnov(a, nil, b, nil), nil
}

func newJSDivergence(cfg measurement.MetricConfig) (measurement.MetricFunc, error) {
	discrete := cfg.Discrete
	return func(gt, sim any) (float64, error) {
		var p, q []float64
		var err error
		if discrete {
			p, q, err = discreteMasses(gt, sim)
		} else {
			p, q, err = binnedMasses(gt, sim)
		}
		if err != nil {
			return 0, err
		}
		if !normalize(p) || !normalize(q) {
			return math.NaN(), nil
		}
		return stat.JensenShannon(p, q), nil
	}, nil
}

// discreteMasses counts categories: series labels weighted by their values,
// or distinct sample values.
func discreteMasses(gt, sim any) ([]float64, []float64, error) {
	gc, err := categoryCounts(gt)
	if err != nil {
		return nil, nil, err
	}
	sc, err := categoryCounts(sim)
	if err != nil {
		return nil, nil, err
	}
	keys := make(map[string]bool, len(gc)+len(sc))
	for k := range gc {
		keys[k] = true
	}
	for k := range sc {
		keys[k] = true
	}
	ordered := make([]string, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Strings(ordered)

	p := make([]float64, len(ordered))
	q := make([]float64, len(ordered))
	for i, k := range ordered {
		p[i] = gc[k]
		q[i] = sc[k]
	}
	return p, q, nil
}

func categoryCounts(v any) (map[string]float64, error) {
	if s, ok := v.(measurement.Series); ok {
		counts := make(map[string]float64, s.Len())
		for i, l := range s.Labels {
			if !math.IsNaN(s.Values[i]) {
				counts[l] += s.Values[i]
			}
		}
		return counts, nil
	}
	xs, err := asValues(v)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]float64)
	for _, x := range xs {
		counts[strconv.FormatFloat(x, 'g', -1, 64)]++
	}
	return counts, nil
}

// binnedMasses histograms both samples over shared equal-width bins
// spanning the pooled range, with √n bins.
func binnedMasses(gt, sim any) ([]float64, []float64, error) {
	a, err := asValues(gt)
	if err != nil {
		return nil, nil, err
	}
	b, err := asValues(sim)
	if err != nil {
		return nil, nil, err
	}
	if len(a) == 0 || len(b) == 0 {
		return []float64{}, []float64{}, nil
	}
	pooled := append(append([]float64(nil), a...), b...)
	lo, hi := floats.Min(pooled), floats.Max(pooled)
	if lo == hi {
		return []float64{float64(len(a))}, []float64{float64(len(b))}, nil
	}
	n := int(math.Ceil(math.Sqrt(float64(len(pooled)))))
	dividers := make([]float64, n+1)
	floats.Span(dividers, lo, hi)
	dividers[n] = math.Nextafter(hi, math.Inf(1))

	sort.Float64s(a)
	sort.Float64s(b)
	p := stat.Histogram(nil, dividers, a, nil)
	q := stat.Histogram(nil, dividers, b, nil)
	return p, q, nil
}

// normalize scales xs to sum to one; false when it cannot.
func normalize(xs []float64) bool {
	if len(xs) == 0 {
		return false
	}
	total := floats.Sum(xs)
	if total <= 0 || math.IsInf(total, 0) {
		return false
	}
	floats.Scale(1/total, xs)
	return true
}
