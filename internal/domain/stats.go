package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the values retained for a region at one time.
type Summary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize computes statistics over the first value of each sample, skipping
// NaN. An empty input yields a zero Count and NaN statistics.
func Summarize(samples []Sample) Summary {
	values := make([]float64, 0, len(samples))
	for _, s := range samples {
		if v := s.Value(); !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		nan := math.NaN()
		return Summary{Min: nan, Max: nan, Mean: nan, StdDev: nan}
	}

	sum := Summary{
		Count: len(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		Mean:  stat.Mean(values, nil),
	}
	if len(values) > 1 {
		sum.StdDev = stat.StdDev(values, nil)
	}
	return sum
}
