package analytics

import (
	"math"
	"testing"
	"time"

	"CarbonDesk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthly(prices ...float64) []models.Sample {
	out := make([]models.Sample, len(prices))
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range prices {
		out[i] = models.Sample{Timestamp: start.AddDate(0, i, 0), Price: p, Volume: 100}
	}
	return out
}

func daily(prices ...float64) []models.Sample {
	out := make([]models.Sample, len(prices))
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, p := range prices {
		out[i] = models.Sample{Timestamp: start.AddDate(0, 0, i), Price: p, Volume: 50}
	}
	return out
}

func TestComputeStatistics(t *testing.T) {
	samples := daily(10, 12, 11, 13, 14)
	res, err := ComputeStatistics("reef", time.Time{}, time.Time{}, samples)
	require.NoError(t, err)

	assert.Equal(t, "reef", res.AssetID)
	assert.Equal(t, 5, res.SampleCount)
	assert.InDelta(t, 12.0, res.Mean, 1e-12)
	assert.Equal(t, 10.0, res.Min)
	assert.Equal(t, 14.0, res.Max)
	assert.Equal(t, 12.0, res.Percentiles.P50)
	assert.True(t, res.WindowStart.Equal(samples[0].Timestamp))
	assert.True(t, res.WindowEnd.Equal(samples[4].Timestamp))
	assert.Greater(t, res.Volatility, 0.0)
}

func TestComputeStatisticsKeepsRequestedWindow(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	res, err := ComputeStatistics("reef", from, to, daily(1, 2))
	require.NoError(t, err)
	assert.True(t, res.WindowStart.Equal(from))
	assert.True(t, res.WindowEnd.Equal(to))
}

func TestComputeStatisticsEmptyWindow(t *testing.T) {
	_, err := ComputeStatistics("reef", time.Time{}, time.Time{}, nil)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestStatisticsMedianBetweenMinAndMax(t *testing.T) {
	series := [][]float64{
		{5, 5},
		{1, 9, 3},
		{20, 21, 19, 22, 23, 21, 24, 25},
		{100, 80, 120, 95, 105, 90, 110, 85, 115, 100, 60},
	}
	for _, prices := range series {
		res, err := ComputeStatistics("x", time.Time{}, time.Time{}, daily(prices...))
		require.NoError(t, err)
		assert.LessOrEqual(t, res.Min, res.Percentiles.P50)
		assert.LessOrEqual(t, res.Percentiles.P50, res.Max)
	}
}

func TestDecomposeMangroveBoundary(t *testing.T) {
	prices := []float64{20, 21, 19, 22, 23, 21, 24, 25}
	d := NewMovingAverageDecomposer()

	_, err := d.Decompose("mangrove", monthly(prices[:7]...), 4)
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	res, err := d.Decompose("mangrove", monthly(prices...), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Period)
	assert.Len(t, res.Trend, 8)
	assert.Len(t, res.SeasonalIndex, 4)
	assert.Equal(t, []bool{true, true, false, false, false, false, true, true}, res.Edge)
}

func TestDecomposeInvalidPeriod(t *testing.T) {
	_, err := NewMovingAverageDecomposer().Decompose("x", daily(1, 2, 3, 4), 1)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestDecomposeReconstructsNonEdgePoints(t *testing.T) {
	var prices []float64
	for i := 0; i < 40; i++ {
		prices = append(prices, 50+0.3*float64(i)+4*math.Sin(2*math.Pi*float64(i)/5)+float64(i%3)*0.7)
	}
	for _, period := range []int{2, 3, 4, 5, 12} {
		res, err := NewMovingAverageDecomposer().Decompose("kelp", daily(prices...), period)
		require.NoError(t, err, "period %d", period)
		for i := range res.Original {
			if res.Edge[i] {
				assert.Zero(t, res.Trend[i])
				assert.Zero(t, res.Residual[i])
				continue
			}
			sum := res.Trend[i] + res.Seasonal[i] + res.Residual[i]
			assert.InDelta(t, res.Original[i], sum, 1e-6, "period %d index %d", period, i)
		}
	}
}

func TestSeasonalIndexIsCentered(t *testing.T) {
	res, err := NewMovingAverageDecomposer().Decompose("mangrove", monthly(20, 21, 19, 22, 23, 21, 24, 25, 22, 23), 4)
	require.NoError(t, err)
	sum := 0.0
	for _, v := range res.SeasonalIndex {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-9)
}

func TestCenteredMovingAverageEvenPeriod(t *testing.T) {
	trend, edge := CenteredMovingAverage([]float64{1, 2, 3, 4, 5, 6}, 4)
	assert.Equal(t, []bool{true, true, false, false, true, true}, edge)
	assert.InDelta(t, 3.0, trend[2], 1e-12)
	assert.InDelta(t, 4.0, trend[3], 1e-12)
}

func TestForecastLinearSeries(t *testing.T) {
	var prices []float64
	for i := 0; i < 12; i++ {
		prices = append(prices, 10+float64(i))
	}
	samples := daily(prices...)
	d, err := NewMovingAverageDecomposer().Decompose("peat", samples, 4)
	require.NoError(t, err)

	res, err := NewLinearForecaster().Forecast(d, 3)
	require.NoError(t, err)
	require.Len(t, res.Forecast, 3)
	assert.Equal(t, 24*time.Hour, res.Step)
	for k, p := range res.Forecast {
		assert.InDelta(t, 10+float64(12+k), p.Value, 1e-9)
		assert.InDelta(t, p.Value, p.ConfidenceLow, 1e-9)
		assert.InDelta(t, p.Value, p.ConfidenceHigh, 1e-9)
		assert.True(t, p.Timestamp.Equal(samples[11].Timestamp.AddDate(0, 0, k+1)))
	}
}

func TestForecastBandWidens(t *testing.T) {
	prices := []float64{20, 21, 19, 22, 23, 21, 24, 25, 22, 24, 23, 27, 26, 25}
	d, err := NewMovingAverageDecomposer().Decompose("mangrove", monthly(prices...), 4)
	require.NoError(t, err)

	res, err := NewLinearForecaster().Forecast(d, 5)
	require.NoError(t, err)
	prev := 0.0
	for _, p := range res.Forecast {
		assert.LessOrEqual(t, p.ConfidenceLow, p.Value)
		assert.GreaterOrEqual(t, p.ConfidenceHigh, p.Value)
		width := p.ConfidenceHigh - p.ConfidenceLow
		assert.Greater(t, width, prev)
		prev = width
	}
}

func TestForecastRejectsBadHorizon(t *testing.T) {
	d, err := NewMovingAverageDecomposer().Decompose("peat", daily(1, 2, 3, 4, 5, 6, 7, 8), 4)
	require.NoError(t, err)
	_, err = NewLinearForecaster().Forecast(d, 0)
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}
