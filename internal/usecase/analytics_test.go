package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/repository"
	svcmetrics "CarbonDesk/internal/service/metrics"
	"CarbonDesk/internal/services/analytics"
	"CarbonDesk/pkg/cache"
	"CarbonDesk/pkg/metrics"
)

var mangrove = []float64{20, 21, 19, 22, 23, 21, 24, 25}

func seed(t *testing.T, store *repository.MemorySampleStore, asset string, prices []float64, step time.Duration) {
	t.Helper()
	for i, p := range prices {
		require.NoError(t, store.Append(context.Background(), asset, models.Sample{
			Timestamp: t0.Add(time.Duration(i) * step),
			Price:     p,
			Volume:    100,
		}))
	}
}

func newAnalytics(store *repository.MemorySampleStore, opts ...AnalyticsOption) *AnalyticsUseCase {
	return NewAnalyticsUseCase(store, analytics.NewMovingAverageDecomposer(), analytics.NewLinearForecaster(), opts...)
}

func TestSeasonalNeedsTwoPeriods(t *testing.T) {
	store := repository.NewMemorySampleStore()
	seed(t, store, "mangrove", mangrove, 24*time.Hour)
	uc := newAnalytics(store)
	ctx := context.Background()

	_, err := uc.Seasonal(ctx, Window{AssetID: "mangrove", To: t0.Add(6 * 24 * time.Hour)}, 4)
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	d, err := uc.Seasonal(ctx, Window{AssetID: "mangrove"}, 4)
	require.NoError(t, err)
	assert.Len(t, d.Trend, 8)
}

func TestStatisticsUnknownAsset(t *testing.T) {
	uc := newAnalytics(repository.NewMemorySampleStore())
	_, err := uc.Statistics(context.Background(), Window{AssetID: "kelp"})
	assert.ErrorIs(t, err, models.ErrAssetNotFound)
}

func TestAnalyticsCacheKeyFollowsLatestSample(t *testing.T) {
	store := repository.NewMemorySampleStore()
	seed(t, store, "mangrove", mangrove, 24*time.Hour)
	reg := prometheus.NewRegistry()
	m := svcmetrics.NewAnalytics(reg)
	c := cache.NewMemoryCache()
	defer c.Close()
	uc := newAnalytics(store, WithAnalyticsCache(c, time.Minute), WithAnalyticsMetrics(m))
	ctx := context.Background()
	w := Window{AssetID: "mangrove"}

	first, err := uc.Statistics(ctx, w)
	require.NoError(t, err)
	second, err := uc.Statistics(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, first.Mean, second.Mean)
	assert.True(t, first.WindowStart.Equal(second.WindowStart))
	assert.Equal(t, 1, c.Len())

	require.NoError(t, store.Append(ctx, "mangrove", models.Sample{Timestamp: t0.Add(8 * 24 * time.Hour), Price: 40, Volume: 1}))
	third, err := uc.Statistics(ctx, w)
	require.NoError(t, err)
	assert.Equal(t, 9, third.SampleCount)
	assert.Equal(t, 40.0, third.Max)
	assert.Equal(t, 2, c.Len())

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "carbondesk_analytics_cache_lookups_total"))
}

func TestStatisticsWindowEndStableAcrossFutureBounds(t *testing.T) {
	store := repository.NewMemorySampleStore()
	seed(t, store, "mangrove", mangrove, 24*time.Hour)
	c := cache.NewMemoryCache()
	defer c.Close()
	uc := newAnalytics(store, WithAnalyticsCache(c, time.Minute))
	ctx := context.Background()
	last := t0.Add(7 * 24 * time.Hour)

	first, err := uc.Statistics(ctx, Window{AssetID: "mangrove", To: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	second, err := uc.Statistics(ctx, Window{AssetID: "mangrove", To: time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	assert.Equal(t, 1, c.Len())
	assert.True(t, first.WindowEnd.Equal(last), "got %s", first.WindowEnd)
	assert.True(t, second.WindowEnd.Equal(last), "got %s", second.WindowEnd)
}

func TestPredictionStepsByMedianSpacing(t *testing.T) {
	store := repository.NewMemorySampleStore()
	seed(t, store, "mangrove", mangrove, time.Hour)
	uc := newAnalytics(store)

	p, err := uc.Prediction(context.Background(), Window{AssetID: "mangrove"}, 4, 3)
	require.NoError(t, err)
	require.Len(t, p.Forecast, 3)
	last := t0.Add(7 * time.Hour)
	for k, pt := range p.Forecast {
		assert.Equal(t, last.Add(time.Duration(k+1)*time.Hour), pt.Timestamp)
		assert.LessOrEqual(t, pt.ConfidenceLow, pt.Value)
		assert.GreaterOrEqual(t, pt.ConfidenceHigh, pt.Value)
	}
}

func TestOverviewReportsPartialFailures(t *testing.T) {
	store := repository.NewMemorySampleStore()
	seed(t, store, "mangrove", mangrove[:5], 24*time.Hour)
	uc := NewOverviewUseCase(newAnalytics(store))

	ov, err := uc.GetOverview(context.Background(), Window{AssetID: "mangrove"}, 4, 2)
	require.NoError(t, err)
	require.NotNil(t, ov.Statistics)
	assert.Nil(t, ov.Seasonal)
	assert.Nil(t, ov.Prediction)
	assert.Contains(t, ov.Errors, KindSeasonal)
	assert.Contains(t, ov.Errors, KindPrediction)

	_, err = uc.GetOverview(context.Background(), Window{AssetID: "kelp"}, 4, 2)
	assert.ErrorIs(t, err, models.ErrAssetNotFound)
}

func TestTimeSeriesAndPriceHistory(t *testing.T) {
	store := repository.NewMemorySampleStore()
	seed(t, store, "mangrove", mangrove, 6*time.Hour)
	uc := NewTimeSeriesUseCase(store, metrics.Nop{})
	ctx := context.Background()

	ts, err := uc.GetTimeSeries(ctx, Window{AssetID: "mangrove", From: t0.Add(6 * time.Hour), To: t0.Add(18 * time.Hour)}, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, ts.Count)
	assert.Equal(t, 21.0, ts.Samples[0].Price)

	ts, err = uc.GetTimeSeries(ctx, Window{AssetID: "mangrove"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Count)

	ph, err := uc.PriceHistory(ctx, Window{AssetID: "mangrove"}, "1d")
	require.NoError(t, err)
	require.Len(t, ph.Candles, 2)
	day1 := ph.Candles[0]
	assert.Equal(t, models.Candle{Bucket: t0, AssetID: "mangrove", Open: 20, High: 22, Low: 19, Close: 22, Volume: 400, Count: 4}, day1)
	assert.Equal(t, 25.0, ph.Candles[1].Close)

	err = uc.Append(ctx, "mangrove", "http", models.Sample{Timestamp: t0, Price: 1, Volume: 1})
	assert.ErrorIs(t, err, models.ErrOutOfOrderSample)
	err = uc.Append(ctx, "mangrove", "http", models.Sample{Timestamp: t0.Add(100 * time.Hour), Price: -1})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}
