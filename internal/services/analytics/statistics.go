package analytics

import (
	"fmt"
	"time"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/services/features"
)

// ComputeStatistics describes the prices of an ordered sample window.
// Zero window bounds are reported as the first/last sample timestamps.
func ComputeStatistics(assetID string, start, end time.Time, samples []models.Sample) (models.StatisticsResult, error) {
	sum, ok := features.Describe(models.Prices(samples))
	if !ok {
		return models.StatisticsResult{}, fmt.Errorf("statistics %s: empty window: %w", assetID, models.ErrInsufficientData)
	}
	if start.IsZero() {
		start = samples[0].Timestamp
	}
	if end.IsZero() {
		end = samples[len(samples)-1].Timestamp
	}
	return models.StatisticsResult{
		AssetID:     assetID,
		WindowStart: start,
		WindowEnd:   end,
		Mean:        sum.Mean,
		Variance:    sum.Variance,
		StdDev:      sum.StdDev,
		Min:         sum.Min,
		Max:         sum.Max,
		Percentiles: models.Percentiles{P50: sum.P50, P90: sum.P90, P99: sum.P99},
		Volatility:  features.RealizedVolatility(features.ComputeLogReturns(samples), 0),
		SampleCount: sum.N,
	}, nil
}
