package analytics

import (
	"fmt"
	"math"
	"time"

	"CarbonDesk/internal/domain/models"
	domsvc "CarbonDesk/internal/domain/service"
	"CarbonDesk/internal/services/features"
)

// z-score of a two-sided 95% band.
const defaultZ = 1.96

// LinearForecaster extends the trend through its last two estimates and
// re-applies the seasonal index cyclically.
type LinearForecaster struct {
	z float64
}

func NewLinearForecaster() *LinearForecaster { return &LinearForecaster{z: defaultZ} }

// Forecast projects horizon steps past the last sample. Steps are spaced by the median
// sample spacing; the band is ±z·σ(residual)·sqrt(step).
func (f *LinearForecaster) Forecast(d models.SeasonalDecomposition, horizon int) (models.PredictionResult, error) {
	if horizon < 1 {
		return models.PredictionResult{}, fmt.Errorf("forecast %s: horizon %d: %w", d.AssetID, horizon, models.ErrInvalidArgument)
	}
	n := len(d.Original)
	last := lastTrendIndex(d.Edge)
	if last < 1 || d.Edge[last-1] || len(d.SeasonalIndex) != d.Period {
		return models.PredictionResult{}, fmt.Errorf("forecast %s: %w", d.AssetID, models.ErrInsufficientData)
	}
	slope := d.Trend[last] - d.Trend[last-1]

	resid := make([]float64, 0, n)
	for i, r := range d.Residual {
		if !d.Edge[i] {
			resid = append(resid, r)
		}
	}
	sigma := features.SampleStdDev(resid)
	step := features.MedianStep(d.Timestamps)
	lastTS := d.Timestamps[n-1]

	out := models.PredictionResult{
		AssetID:  d.AssetID,
		Horizon:  horizon,
		Period:   d.Period,
		Step:     step,
		Forecast: make([]models.ForecastPoint, 0, horizon),
	}
	for k := 1; k <= horizon; k++ {
		idx := n - 1 + k
		value := d.Trend[last] + slope*float64(idx-last) + d.SeasonalIndex[idx%d.Period]
		band := f.z * sigma * math.Sqrt(float64(k))
		out.Forecast = append(out.Forecast, models.ForecastPoint{
			Timestamp:      lastTS.Add(time.Duration(k) * step),
			Value:          value,
			ConfidenceLow:  value - band,
			ConfidenceHigh: value + band,
		})
	}
	return out, nil
}

func lastTrendIndex(edge []bool) int {
	for i := len(edge) - 1; i >= 0; i-- {
		if !edge[i] {
			return i
		}
	}
	return -1
}

var _ domsvc.Forecaster = (*LinearForecaster)(nil)
