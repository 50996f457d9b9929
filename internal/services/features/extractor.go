package features

import (
	"math"
	"sort"
	"time"

	"CarbonDesk/internal/domain/models"
)

// ComputeLogReturns computes log returns r_t = ln(P_t / P_{t-1}).
// It returns a slice of length len(samples)-1, or nil if insufficient data.
func ComputeLogReturns(samples []models.Sample) []float64 {
	if len(samples) < 2 {
		return nil
	}
	out := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		prev := samples[i-1].Price
		cur := samples[i].Price
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility is the sample standard deviation of the latest `window` log returns.
// A window <= 0 uses every return.
func RealizedVolatility(logReturns []float64, window int) float64 {
	if window <= 0 || window > len(logReturns) {
		window = len(logReturns)
	}
	if window < 2 {
		return 0
	}
	return SampleStdDev(logReturns[len(logReturns)-window:])
}

// TrendSlope fits price = a + b*days by ordinary least squares and returns b (price per day).
func TrendSlope(samples []models.Sample) float64 {
	n := len(samples)
	if n < 2 {
		return 0
	}
	t0 := samples[0].Timestamp
	var sx, sy, sxx, sxy float64
	for _, s := range samples {
		x := s.Timestamp.Sub(t0).Hours() / 24
		sx += x
		sy += s.Price
		sxx += x * x
		sxy += x * s.Price
	}
	fn := float64(n)
	den := fn*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (fn*sxy - sx*sy) / den
}

// MedianStep returns the median spacing between consecutive timestamps, or 0 with fewer than two.
func MedianStep(ts []time.Time) time.Duration {
	if len(ts) < 2 {
		return 0
	}
	gaps := make([]time.Duration, 0, len(ts)-1)
	for i := 1; i < len(ts); i++ {
		gaps = append(gaps, ts[i].Sub(ts[i-1]))
	}
	sort.Slice(gaps, func(i, j int) bool { return gaps[i] < gaps[j] })
	return gaps[(len(gaps)-1)/2]
}
