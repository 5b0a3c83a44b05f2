package metrics

import (
	"fmt"
	"math"
	"sort"

	"simeval/domain/measurement"
)

// dtwDistance is the dynamic time warping distance with absolute cost.
// Series are warped in label order.
func dtwDistance(gt, sim any) (float64, error) {
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

	prev := make([]float64, len(b)+1)
	curr := make([]float64, len(b)+1)
	for j := 1; j <= len(b); j++ {
		prev[j] = math.Inf(1)
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = math.Inf(1)
		for j := 1; j <= len(b); j++ {
			cost := math.Abs(a[i-1] - b[j-1])
			curr[j] = cost + math.Min(prev[j-1], math.Min(prev[j], curr[j-1]))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)], nil
}

const defaultPersistence = 0.9

func newRBO(cfg measurement.MetricConfig) (measurement.MetricFunc, error) {
	p, err := checkPersistence(cfg.P, defaultPersistence)
	if err != nil {
		return nil, err
	}
	return func(gt, sim any) (float64, error) {
		s, err := asRanking(gt)
		if err != nil {
			return 0, err
		}
		t, err := asRanking(sim)
		if err != nil {
			return 0, err
		}
		return rankBiasedOverlap(s, t, p), nil
	}, nil
}

// newRBOForTE ranks influence edges by one score column and compares the
// top Cutoff edges of both sides with rank-biased overlap.
func newRBOForTE(cfg measurement.MetricConfig) (measurement.MetricFunc, error) {
	p, err := checkPersistence(cfg.Weight, defaultPersistence)
	if err != nil {
		return nil, err
	}
	if cfg.Index < 0 {
		return nil, fmt.Errorf("score index %d is negative", cfg.Index)
	}
	if cfg.Cutoff < 0 {
		return nil, fmt.Errorf("cutoff %d is negative", cfg.Cutoff)
	}
	return func(gt, sim any) (float64, error) {
		g, err := asInfluence(gt)
		if err != nil {
			return 0, err
		}
		s, err := asInfluence(sim)
		if err != nil {
			return 0, err
		}
		gr, err := rankEdges(g, cfg.Index, cfg.Cutoff)
		if err != nil {
			return 0, err
		}
		sr, err := rankEdges(s, cfg.Index, cfg.Cutoff)
		if err != nil {
			return 0, err
		}
		return rankBiasedOverlap(gr, sr, p), nil
	}, nil
}

func rankEdges(edges measurement.Influence, idx, cutoff int) ([]string, error) {
	type scored struct {
		label string
		score float64
	}
	ranked := make([]scored, 0, len(edges))
	for _, e := range edges {
		if idx >= len(e.Scores) {
			return nil, fmt.Errorf("edge %s->%s has no score column %d", e.Source, e.Target, idx)
		}
		ranked = append(ranked, scored{label: e.Source + "->" + e.Target, score: e.Scores[idx]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].label < ranked[j].label
	})
	if cutoff > 0 && len(ranked) > cutoff {
		ranked = ranked[:cutoff]
	}
	labels := make([]string, len(ranked))
	for i, r := range ranked {
		labels[i] = r.label
	}
	return labels, nil
}

// rankBiasedOverlap is the extrapolated RBO of two rankings of possibly
// different lengths (Webber, Moffat and Zobel 2010). Identical rankings
// score 1, disjoint ones 0.
func rankBiasedOverlap(s, t []string, p float64) float64 {
	if len(s) == 0 && len(t) == 0 {
		return 1
	}
	if len(s) == 0 || len(t) == 0 {
		return 0
	}
	if len(s) > len(t) {
		s, t = t, s
	}
	short, long := len(s), len(t)

	inS := make(map[string]bool, short)
	inT := make(map[string]bool, long)
	overlap := 0
	xs := 0
	var sum1, sum2 float64
	for d := 1; d <= long; d++ {
		if d <= short {
			item := s[d-1]
			if !inS[item] {
				inS[item] = true
				if inT[item] {
					overlap++
				}
			}
		}
		item := t[d-1]
		if !inT[item] {
			inT[item] = true
			if inS[item] {
				overlap++
			}
		}
		if d == short {
			xs = overlap
		}
		pd := math.Pow(p, float64(d))
		sum1 += float64(overlap) / float64(d) * pd
		if d > short {
			sum2 += float64(xs) * float64(d-short) / float64(short*d) * pd
		}
	}
	xl := overlap
	tail := (float64(xl-xs)/float64(long) + float64(xs)/float64(short)) * math.Pow(p, float64(long))
	return (1-p)/p*(sum1+sum2) + tail
}
