package metrics

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"simeval/domain/measurement"
)

func absoluteDifference(gt, sim any) (float64, error) {
	a, aok := asScalar(gt)
	b, bok := asScalar(sim)
	if !aok || !bok {
		return 0, fmt.Errorf("absolute difference needs two scalars, got %T and %T", gt, sim)
	}
	return math.Abs(a - b), nil
}

func newRMSE(cfg measurement.MetricConfig) (measurement.MetricFunc, error) {
	join, err := checkJoin(cfg.Join)
	if err != nil {
		return nil, err
	}
	return func(gt, sim any) (float64, error) {
		a, aok := asScalar(gt)
		b, bok := asScalar(sim)
		if aok && bok {
			return math.Abs(a - b), nil
		}
		x, y, err := align(gt, sim, join)
		if err != nil {
			return 0, err
		}
		return rootMeanSquaredError(x, y), nil
	}, nil
}

func rootMeanSquaredError(x, y []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	sq := make([]float64, len(x))
	for i := range x {
		d := x[i] - y[i]
		sq[i] = d * d
	}
	mse, err := stats.Mean(sq)
	if err != nil {
		return math.NaN()
	}
	return math.Sqrt(mse)
}

func newR2(cfg measurement.MetricConfig) (measurement.MetricFunc, error) {
	join, err := checkJoin(cfg.Join)
	if err != nil {
		return nil, err
	}
	return func(gt, sim any) (float64, error) {
		x, y, err := align(gt, sim, join)
		if err != nil {
			return 0, err
		}
		return coefficientOfDetermination(x, y), nil
	}, nil
}

// coefficientOfDetermination scores predictions y against observations x.
// A constant x scores 1 when predicted exactly and 0 otherwise.
func coefficientOfDetermination(x, y []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	mean, err := stats.Mean(x)
	if err != nil {
		return math.NaN()
	}
	var ssRes, ssTot float64
	for i := range x {
		ssRes += (x[i] - y[i]) * (x[i] - y[i])
		ssTot += (x[i] - mean) * (x[i] - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
