package analytics

import (
	"fmt"
	"time"

	"CarbonDesk/internal/domain/models"
	domsvc "CarbonDesk/internal/domain/service"
	"CarbonDesk/internal/services/features"
)

// MovingAverageDecomposer implements classical additive decomposition.
// The trend is a centered moving average of span period; an even period uses the
// 2×period average so the window stays centered on the sample.
type MovingAverageDecomposer struct{}

func NewMovingAverageDecomposer() *MovingAverageDecomposer { return &MovingAverageDecomposer{} }

// Decompose needs at least two full cycles (2×period samples).
func (MovingAverageDecomposer) Decompose(assetID string, samples []models.Sample, period int) (models.SeasonalDecomposition, error) {
	if period < 2 {
		return models.SeasonalDecomposition{}, fmt.Errorf("decompose %s: period %d: %w", assetID, period, models.ErrInvalidArgument)
	}
	n := len(samples)
	if n < 2*period {
		return models.SeasonalDecomposition{}, fmt.Errorf("decompose %s: %d samples, need %d: %w", assetID, n, 2*period, models.ErrInsufficientData)
	}

	x := models.Prices(samples)
	trend, edge := CenteredMovingAverage(x, period)

	index := make([]float64, period)
	counts := make([]int, period)
	for i := range x {
		if edge[i] {
			continue
		}
		ph := i % period
		index[ph] += x[i] - trend[i]
		counts[ph]++
	}
	for ph := range index {
		// n >= 2*period leaves at least period consecutive non-edge points, one per phase
		index[ph] /= float64(counts[ph])
	}
	center := features.Mean(index)
	for ph := range index {
		index[ph] -= center
	}

	ts := make([]time.Time, n)
	seasonal := make([]float64, n)
	residual := make([]float64, n)
	for i := range x {
		ts[i] = samples[i].Timestamp
		seasonal[i] = index[i%period]
		if !edge[i] {
			residual[i] = x[i] - trend[i] - seasonal[i]
		}
	}

	return models.SeasonalDecomposition{
		AssetID:       assetID,
		Period:        period,
		Timestamps:    ts,
		Original:      x,
		Trend:         trend,
		Seasonal:      seasonal,
		Residual:      residual,
		Edge:          edge,
		SeasonalIndex: index,
	}, nil
}

// CenteredMovingAverage returns the trend and an edge mask. The first and last
// period/2 points have no centered window; their trend value is left at 0.
func CenteredMovingAverage(x []float64, period int) ([]float64, []bool) {
	n := len(x)
	trend := make([]float64, n)
	edge := make([]bool, n)
	half := period / 2
	for i := 0; i < n; i++ {
		if i < half || i > n-1-half {
			edge[i] = true
			continue
		}
		sum := 0.0
		if period%2 == 1 {
			for j := i - half; j <= i+half; j++ {
				sum += x[j]
			}
		} else {
			sum = 0.5*x[i-half] + 0.5*x[i+half]
			for j := i - half + 1; j <= i+half-1; j++ {
				sum += x[j]
			}
		}
		trend[i] = sum / float64(period)
	}
	return trend, edge
}

var _ domsvc.Decomposer = (*MovingAverageDecomposer)(nil)
