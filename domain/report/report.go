package report

import (
	"time"

	"simeval/domain/core"
	"simeval/domain/measurement"
)

// MetricReport is the engine's output for one measurement. Scalar scales
// fill Aggregate; keyed scales hold one score set per ground-truth key.
type MetricReport struct {
	Scale  measurement.Scale
	Timing TimingMode

	aggregate *ScoreSet
	entities  []string
	byEntity  map[string]*ScoreSet
}

// NewMetricReport creates an empty report shaped for scale.
func NewMetricReport(scale measurement.Scale, timing TimingMode) *MetricReport {
	r := &MetricReport{Scale: scale, Timing: timing}
	if scale.Keyed() {
		r.byEntity = make(map[string]*ScoreSet)
	} else {
		r.aggregate = NewScoreSet()
	}
	return r
}

// Aggregate returns the measurement-wide score set of a scalar-scale
// report; nil for keyed scales.
func (r *MetricReport) Aggregate() *ScoreSet {
	return r.aggregate
}

// Seed adds an empty score set for key unless it already exists.
func (r *MetricReport) Seed(key string) *ScoreSet {
	if s, ok := r.byEntity[key]; ok {
		return s
	}
	s := NewScoreSet()
	r.entities = append(r.entities, key)
	r.byEntity[key] = s
	return s
}

// Entity returns the score set of key.
func (r *MetricReport) Entity(key string) (*ScoreSet, bool) {
	s, ok := r.byEntity[key]
	return s, ok
}

// Entities returns the reported keys in ground-truth order.
func (r *MetricReport) Entities() []string {
	return append([]string(nil), r.entities...)
}

// Tree renders the report: metric → score plus "eta" for scalar scales,
// key → {metric → score, "eta"} for keyed ones. Keys that would shadow an
// entry field are rendered with a leading underscore (see RenderedKey).
func (r *MetricReport) Tree() map[string]any {
	if !r.Scale.Keyed() {
		return r.aggregate.Tree(r.Timing)
	}
	out := make(map[string]any, len(r.entities))
	for _, key := range r.entities {
		out[r.RenderedKey(key)] = r.byEntity[key].Tree(r.Timing)
	}
	return out
}

// RenderedKey returns the tree key of entity key. "metadata" and "error"
// sit next to entity keys in an entry, so they are prefixed with "_" until
// they clash with neither a reserved key nor another entity.
func (r *MetricReport) RenderedKey(key string) string {
	if key != KeyMetadata && key != KeyError {
		return key
	}
	rendered := "_" + key
	for {
		if _, taken := r.byEntity[rendered]; !taken && !IsReservedKey(rendered) {
			return rendered
		}
		rendered = "_" + rendered
	}
}

// Failure marks a measurement that could not be evaluated.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Entry is one measurement's slot in a batch report: either a report or a
// failure, always with metadata.
type Entry struct {
	ID       string
	Report   *MetricReport
	Failure  *Failure
	Metadata map[string]any
}

// Failed reports whether the entry holds a failure marker.
func (e Entry) Failed() bool {
	return e.Failure != nil
}

// Tree renders the entry with its metadata attached.
func (e Entry) Tree() map[string]any {
	var out map[string]any
	if e.Failure != nil {
		out = map[string]any{
			KeyError: map[string]any{
				"code":    e.Failure.Code,
				"message": e.Failure.Message,
			},
		}
	} else {
		out = e.Report.Tree()
	}
	out[KeyMetadata] = e.Metadata
	return out
}

// BatchReport is the combined report of a batch run.
type BatchReport struct {
	RunID   core.RunID
	Entries []Entry
	Elapsed time.Duration
}

// Entry returns the entry of a measurement id.
func (b *BatchReport) Entry(id string) (Entry, bool) {
	for _, e := range b.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Failures returns the entries that hold failure markers.
func (b *BatchReport) Failures() []Entry {
	var failed []Entry
	for _, e := range b.Entries {
		if e.Failed() {
			failed = append(failed, e)
		}
	}
	return failed
}

// Tree renders the batch: measurement id → entry, plus the total "eta".
func (b *BatchReport) Tree() map[string]any {
	out := make(map[string]any, len(b.Entries)+1)
	for _, e := range b.Entries {
		out[e.ID] = e.Tree()
	}
	out[KeyETA] = core.FormatElapsed(b.Elapsed)
	return out
}
