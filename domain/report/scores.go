package report

import (
	"time"

	"simeval/domain/core"
)

// ScoreSet holds the metric scores for one measurement, or for one entity of
// a keyed measurement. A nil score is null.
type ScoreSet struct {
	metrics []string
	scores  map[string]*float64
	elapsed map[string]time.Duration
	last    string
}

// NewScoreSet creates an empty score set.
func NewScoreSet() *ScoreSet {
	return &ScoreSet{
		scores:  make(map[string]*float64),
		elapsed: make(map[string]time.Duration),
	}
}

// Record stores the score of metric and how long it took.
func (s *ScoreSet) Record(metric string, score *float64, took time.Duration) {
	if _, ok := s.scores[metric]; !ok {
		s.metrics = append(s.metrics, metric)
	}
	s.scores[metric] = score
	s.elapsed[metric] = took
	s.last = metric
}

// Score returns the recorded score of metric.
func (s *ScoreSet) Score(metric string) (*float64, bool) {
	v, ok := s.scores[metric]
	return v, ok
}

// Metrics returns the recorded metric names in recording order.
func (s *ScoreSet) Metrics() []string {
	return append([]string(nil), s.metrics...)
}

// Elapsed returns the duration reported under "eta" for mode.
func (s *ScoreSet) Elapsed(mode TimingMode) time.Duration {
	if mode == TimingLast {
		return s.elapsed[s.last]
	}
	var total time.Duration
	for _, d := range s.elapsed {
		total += d
	}
	return total
}

// MetricElapsed returns the recorded duration of one metric.
func (s *ScoreSet) MetricElapsed(metric string) time.Duration {
	return s.elapsed[metric]
}

// Tree renders the score set as a report mapping.
func (s *ScoreSet) Tree(mode TimingMode) map[string]any {
	out := make(map[string]any, len(s.metrics)+2)
	for _, m := range s.metrics {
		if v := s.scores[m]; v != nil {
			out[m] = *v
		} else {
			out[m] = nil
		}
	}
	out[KeyETA] = core.FormatElapsed(s.Elapsed(mode))
	if mode == TimingPerMetric {
		by := make(map[string]any, len(s.metrics))
		for _, m := range s.metrics {
			by[m] = core.FormatElapsed(s.elapsed[m])
		}
		out[KeyETAByMetric] = by
	}
	return out
}
