package report

import "fmt"

// TimingMode decides which elapsed time a score set reports when more than
// one metric is bound.
type TimingMode string

const (
	// TimingLast reports only the duration of the last metric applied.
	TimingLast TimingMode = "last"
	// TimingPerMetric reports the total in "eta" and every metric's own
	// duration under "eta_by_metric".
	TimingPerMetric TimingMode = "per_metric"
)

// ParseTimingMode parses a timing mode; empty means TimingPerMetric.
func ParseTimingMode(s string) (TimingMode, error) {
	switch TimingMode(s) {
	case "":
		return TimingPerMetric, nil
	case TimingLast, TimingPerMetric:
		return TimingMode(s), nil
	}
	return "", fmt.Errorf("unknown timing mode %q (want last or per_metric)", s)
}

// Reserved report keys. Metric bindings may not use them.
const (
	KeyETA         = "eta"
	KeyETAByMetric = "eta_by_metric"
	KeyMetadata    = "metadata"
	KeyError       = "error"
)

// IsReservedKey reports whether name collides with a report field.
func IsReservedKey(name string) bool {
	switch name {
	case KeyETA, KeyETAByMetric, KeyMetadata, KeyError:
		return true
	}
	return false
}
