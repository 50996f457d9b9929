package features

import (
	"math"
	"sort"
)

// Summary holds descriptive statistics of a value set.
type Summary struct {
	N        int
	Mean     float64
	Variance float64
	StdDev   float64
	Min      float64
	Max      float64
	P50      float64
	P90      float64
	P99      float64
}

// Describe summarizes values. It reports ok=false for an empty input.
func Describe(values []float64) (Summary, bool) {
	n := len(values)
	if n == 0 {
		return Summary{}, false
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s := Summary{
		N:    n,
		Mean: Mean(values),
		Min:  sorted[0],
		Max:  sorted[n-1],
		P50:  NearestRank(sorted, 50),
		P90:  NearestRank(sorted, 90),
		P99:  NearestRank(sorted, 99),
	}
	s.Variance = SampleVariance(values)
	s.StdDev = math.Sqrt(s.Variance)
	return s, true
}

// NearestRank returns the p-th percentile of an ascending slice: the value at rank ceil(p/100 * n).
func NearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}

func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// SampleVariance uses the n-1 denominator and is 0 for n <= 1.
func SampleVariance(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}
	m := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return ss / float64(n-1)
}

func SampleStdDev(values []float64) float64 {
	return math.Sqrt(SampleVariance(values))
}
