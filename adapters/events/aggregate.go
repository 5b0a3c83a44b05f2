package events

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"simeval/domain/event"
	"simeval/domain/measurement"
)

// orderedGroups groups events by key in first-seen order.
type orderedGroups struct {
	keys   []string
	groups map[string][]event.Event
}

func newOrderedGroups() *orderedGroups {
	return &orderedGroups{groups: make(map[string][]event.Event)}
}

func (g *orderedGroups) ensure(key string) {
	if _, ok := g.groups[key]; !ok {
		g.keys = append(g.keys, key)
		g.groups[key] = nil
	}
}

func (g *orderedGroups) add(key string, e event.Event) {
	g.ensure(key)
	g.groups[key] = append(g.groups[key], e)
}

func groupBy(events []event.Event, key func(event.Event) string) *orderedGroups {
	g := newOrderedGroups()
	for _, e := range events {
		g.add(key(e), e)
	}
	return g
}

func byUser(e event.Event) string { return e.User }
func byRepo(e event.Event) string { return e.Repo }

// counts tallies events per key, returning keys in first-seen order.
func counts(events []event.Event, key func(event.Event) string) ([]string, map[string]float64) {
	var keys []string
	tally := make(map[string]float64)
	for _, e := range events {
		k := key(e)
		if _, ok := tally[k]; !ok {
			keys = append(keys, k)
		}
		tally[k]++
	}
	return keys, tally
}

func countSample(events []event.Event, key func(event.Event) string) measurement.Sample {
	keys, tally := counts(events, key)
	out := make(measurement.Sample, len(keys))
	for i, k := range keys {
		out[i] = tally[k]
	}
	return out
}

// topK ranks keys by count descending, ties by key.
func topK(events []event.Event, key func(event.Event) string, k int) measurement.Ranking {
	keys, tally := counts(events, key)
	return rankByScore(keys, tally, k)
}

func rankByScore(keys []string, score map[string]float64, k int) measurement.Ranking {
	ranked := append([]string(nil), keys...)
	sort.SliceStable(ranked, func(a, b int) bool {
		sa, sb := score[ranked[a]], score[ranked[b]]
		if sa != sb {
			return sa > sb
		}
		return ranked[a] < ranked[b]
	})
	if k <= 0 {
		k = defaultTopK
	}
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return measurement.Ranking(ranked)
}

// dailyCounts returns per-day event counts over the days that have events.
func dailyCounts(events []event.Event) measurement.Series {
	tally := make(map[string]float64)
	for _, e := range events {
		tally[e.Day()]++
	}
	return measurement.SeriesFromCounts(tally)
}

// cumulative turns a series into its running total.
func cumulative(s measurement.Series) measurement.Series {
	out := measurement.Series{Labels: append([]string(nil), s.Labels...), Values: make([]float64, len(s.Values))}
	var total float64
	for i, v := range s.Values {
		total += v
		out.Values[i] = total
	}
	return out
}

// days lists every calendar day from start to end inclusive.
func days(start, end time.Time) []string {
	if start.IsZero() || end.Before(start) {
		return nil
	}
	first := truncateDay(start)
	last := truncateDay(end)
	var out []string
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(time.DateOnly))
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// gini is the Gini coefficient of non-negative values; NaN when undefined.
func gini(values []float64) float64 {
	n := len(values)
	total, _ := stats.Sum(values)
	if n == 0 || total == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	var weighted float64
	for i, v := range sorted {
		weighted += float64(2*(i+1)-n-1) * v
	}
	return weighted / (float64(n) * total)
}

// palma is the share of the richest 10% divided by the share of the poorest
// 40%; NaN when undefined.
func palma(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	bottomN := int(math.Floor(0.4 * float64(n)))
	topN := int(math.Ceil(0.1 * float64(n)))
	if bottomN == 0 || bottomN+topN > n {
		return math.NaN()
	}
	bottom, _ := stats.Sum(sorted[:bottomN])
	top, _ := stats.Sum(sorted[n-topN:])
	if bottom == 0 {
		return math.NaN()
	}
	return top / bottom
}

// bursts counts runs of consecutive days whose activity exceeds the mean by
// more than two standard deviations.
func bursts(events []event.Event, start, end time.Time) float64 {
	daily := dailyCounts(events).Lookup()
	all := days(start, end)
	if len(all) == 0 {
		return 0
	}
	series := make([]float64, len(all))
	for i, d := range all {
		series[i] = daily[d]
	}
	mean, _ := stats.Mean(series)
	sd, _ := stats.StandardDeviationPopulation(series)
	threshold := mean + 2*sd

	var runs float64
	inBurst := false
	for _, v := range series {
		above := sd > 0 && v > threshold
		if above && !inBurst {
			runs++
		}
		inBurst = above
	}
	return runs
}

// burstiness is (σ−μ)/(σ+μ) of the gaps between consecutive events, in
// hours. It needs at least two gaps.
func burstiness(events []event.Event) (float64, bool) {
	if len(events) < 3 {
		return 0, false
	}
	gaps := make([]float64, 0, len(events)-1)
	for i := 1; i < len(events); i++ {
		gaps = append(gaps, events[i].Time.Sub(events[i-1].Time).Hours())
	}
	mean, _ := stats.Mean(gaps)
	sd, _ := stats.StandardDeviationPopulation(gaps)
	if mean+sd == 0 {
		return 0, false
	}
	return (sd - mean) / (sd + mean), true
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
