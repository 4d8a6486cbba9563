package climate

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// boundedMean returns the mean of values kept inside [min, max]. A constant slice yields
// its value exactly. values must not be empty.
func boundedMean(values []float64) float64 {
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return lo
	}
	return clamp(stat.Mean(values, nil), lo, hi)
}

// meanStd returns the mean and sample standard deviation of at least two values. A
// constant slice yields its value with zero deviation, so the value sits on both bounds.
func meanStd(values []float64) (mean, std float64) {
	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return lo, 0
	}
	mean, std = stat.MeanStdDev(values, nil)
	return clamp(mean, lo, hi), std
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
