package registry

import "simeval/domain/measurement"

func absoluteDifference() measurement.Binding {
	return measurement.Bind("absolute_difference", measurement.MetricConfig{})
}

func rmse() measurement.Binding {
	return measurement.Bind("rmse", measurement.MetricConfig{})
}

func rmseOuter() measurement.Binding {
	return measurement.Bind("rmse", measurement.MetricConfig{Join: measurement.JoinOuter})
}

func r2() measurement.Binding {
	return measurement.Bind("r2", measurement.MetricConfig{})
}

func ksTest() measurement.Binding {
	return measurement.Bind("ks_test", measurement.MetricConfig{})
}

func dtw() measurement.Binding {
	return measurement.Bind("dtw", measurement.MetricConfig{})
}

func jsDivergence(discrete bool) measurement.Binding {
	return measurement.Bind("js_divergence", measurement.MetricConfig{Discrete: discrete})
}

func rbo(p float64) measurement.Binding {
	return measurement.Binding{
		Name:    "rbo",
		Metric:  "rbo",
		Display: "rbo_score",
		Config:  measurement.MetricConfig{P: p},
	}
}

func rboForTE(idx int, wt float64, ct int) measurement.Binding {
	return measurement.Binding{
		Name:   "rbo",
		Metric: "rbo_for_te",
		Config: measurement.MetricConfig{Index: idx, Weight: wt, Cutoff: ct},
	}
}
