package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/repository"
	"CarbonDesk/internal/services/analytics"
)

func TestOverviewPartialFailure(t *testing.T) {
	store := repository.NewMemorySampleStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(context.Background(), "kelp", models.Sample{Timestamp: t0.Add(time.Duration(i) * time.Hour), Price: 5 + float64(i), Volume: 1}))
	}
	an := NewAnalyticsUseCase(store, analytics.NewMovingAverageDecomposer(), analytics.NewLinearForecaster())

	res, err := NewOverviewUseCase(an).GetOverview(context.Background(), Window{AssetID: "kelp"}, 12, 3)
	require.NoError(t, err)
	require.NotNil(t, res.Statistics)
	assert.Equal(t, 5, res.Statistics.SampleCount)
	assert.Nil(t, res.Seasonal)
	assert.Nil(t, res.Prediction)
	assert.Contains(t, res.Errors, KindSeasonal)
	assert.Contains(t, res.Errors, KindPrediction)
}

func TestOverviewAllFailed(t *testing.T) {
	an := NewAnalyticsUseCase(repository.NewMemorySampleStore(), analytics.NewMovingAverageDecomposer(), analytics.NewLinearForecaster())
	_, err := NewOverviewUseCase(an).GetOverview(context.Background(), Window{AssetID: "missing"}, 12, 3)
	assert.ErrorIs(t, err, models.ErrAssetNotFound)
}

func TestOverviewComplete(t *testing.T) {
	store := repository.NewMemorySampleStore()
	for i := 0; i < 16; i++ {
		require.NoError(t, store.Append(context.Background(), "kelp", models.Sample{Timestamp: t0.Add(time.Duration(i) * 24 * time.Hour), Price: 5 + float64(i%4), Volume: 1}))
	}
	an := NewAnalyticsUseCase(store, analytics.NewMovingAverageDecomposer(), analytics.NewLinearForecaster())

	res, err := NewOverviewUseCase(an).GetOverview(context.Background(), Window{AssetID: "kelp"}, 4, 2)
	require.NoError(t, err)
	assert.NotNil(t, res.Statistics)
	assert.NotNil(t, res.Seasonal)
	require.NotNil(t, res.Prediction)
	assert.Nil(t, res.Errors)
}
