package features

import (
	"math"
	"testing"
	"time"

	"CarbonDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s, ok := Describe([]float64{4, 1, 3, 2, 5})
	require.True(t, ok)
	assert.Equal(t, 5, s.N)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.InDelta(t, 2.5, s.Variance, 1e-12)
	assert.InDelta(t, math.Sqrt(2.5), s.StdDev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.P50)
	assert.Equal(t, 5.0, s.P90)
	assert.Equal(t, 5.0, s.P99)
}

func TestDescribeEmpty(t *testing.T) {
	_, ok := Describe(nil)
	assert.False(t, ok)
}

func TestDescribeSingleValue(t *testing.T) {
	s, ok := Describe([]float64{7})
	require.True(t, ok)
	assert.Equal(t, 0.0, s.Variance)
	assert.Equal(t, 7.0, s.P50)
}

func TestNearestRank(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 10},
		{10, 10},
		{11, 20},
		{50, 50},
		{90, 90},
		{99, 100},
		{100, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NearestRank(sorted, tt.p), "p=%v", tt.p)
	}
	assert.Equal(t, 0.0, NearestRank(nil, 50))
}

func TestDescribeMedianWithinRange(t *testing.T) {
	inputs := [][]float64{
		{1, 1},
		{3, -2, 8, 0.5},
		{100, 99.5, 101, 100.25, 98, 97, 103},
	}
	for _, in := range inputs {
		s, ok := Describe(in)
		require.True(t, ok)
		assert.LessOrEqual(t, s.Min, s.P50)
		assert.LessOrEqual(t, s.P50, s.Max)
	}
}

func day(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func TestComputeLogReturns(t *testing.T) {
	samples := []models.Sample{
		{Timestamp: day(0), Price: 100},
		{Timestamp: day(1), Price: 110},
		{Timestamp: day(2), Price: 99},
	}
	r := ComputeLogReturns(samples)
	require.Len(t, r, 2)
	assert.InDelta(t, math.Log(1.1), r[0], 1e-12)
	assert.InDelta(t, math.Log(0.9), r[1], 1e-12)

	assert.Nil(t, ComputeLogReturns(samples[:1]))
}

func TestRealizedVolatility(t *testing.T) {
	r := []float64{0.1, -0.1, 0.1, -0.1}
	assert.InDelta(t, SampleStdDev(r), RealizedVolatility(r, 0), 1e-12)
	assert.InDelta(t, SampleStdDev(r[2:]), RealizedVolatility(r, 2), 1e-12)
	assert.Equal(t, 0.0, RealizedVolatility(r[:1], 0))
}

func TestTrendSlope(t *testing.T) {
	var samples []models.Sample
	for i := 0; i < 10; i++ {
		samples = append(samples, models.Sample{Timestamp: day(i), Price: 5 + 2*float64(i)})
	}
	assert.InDelta(t, 2.0, TrendSlope(samples), 1e-9)
	assert.Equal(t, 0.0, TrendSlope(samples[:1]))
}

func TestMedianStep(t *testing.T) {
	ts := []time.Time{day(0), day(1), day(2), day(5), day(6)}
	assert.Equal(t, 24*time.Hour, MedianStep(ts))
	assert.Equal(t, time.Duration(0), MedianStep(ts[:1]))
}
