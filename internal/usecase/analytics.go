package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CarbonDesk/internal/domain/models"
	domrepo "CarbonDesk/internal/domain/repository"
	domsvc "CarbonDesk/internal/domain/service"
	svcmetrics "CarbonDesk/internal/service/metrics"
	"CarbonDesk/internal/services/analytics"
	"CarbonDesk/pkg/cache"
	applogger "CarbonDesk/pkg/logger"
)

const (
	KindStatistics = "statistics"
	KindSeasonal   = "seasonal"
	KindPrediction = "prediction"
)

// AnalyticsUseCase computes statistics, decompositions and forecasts over stored windows.
// Results are cached by asset, window and latest sample timestamp, so a new sample
// naturally invalidates them.
type AnalyticsUseCase struct {
	store      domrepo.SampleStore
	decomposer domsvc.Decomposer
	forecaster domsvc.Forecaster
	cache      cache.Service
	ttl        time.Duration
	metrics    *svcmetrics.Analytics
	l          *applogger.Logger
}

type AnalyticsOption func(*AnalyticsUseCase)

func WithAnalyticsCache(c cache.Service, ttl time.Duration) AnalyticsOption {
	return func(uc *AnalyticsUseCase) {
		uc.cache = c
		if ttl > 0 {
			uc.ttl = ttl
		}
	}
}

func WithAnalyticsMetrics(m *svcmetrics.Analytics) AnalyticsOption {
	return func(uc *AnalyticsUseCase) { uc.metrics = m }
}

func NewAnalyticsUseCase(store domrepo.SampleStore, decomposer domsvc.Decomposer, forecaster domsvc.Forecaster, opts ...AnalyticsOption) *AnalyticsUseCase {
	uc := &AnalyticsUseCase{
		store:      store,
		decomposer: decomposer,
		forecaster: forecaster,
		ttl:        5 * time.Minute,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// SetLogger injects a structured logger.
func (uc *AnalyticsUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

func (uc *AnalyticsUseCase) Statistics(ctx context.Context, w Window) (models.StatisticsResult, error) {
	return cached(ctx, uc, KindStatistics, w, nil, func(ctx context.Context, ew Window, samples []models.Sample) (models.StatisticsResult, error) {
		return analytics.ComputeStatistics(ew.AssetID, ew.From, ew.To, samples)
	})
}

func (uc *AnalyticsUseCase) Seasonal(ctx context.Context, w Window, period int) (models.SeasonalDecomposition, error) {
	return cached(ctx, uc, KindSeasonal, w, []any{period}, func(ctx context.Context, _ Window, samples []models.Sample) (models.SeasonalDecomposition, error) {
		return uc.decomposer.Decompose(w.AssetID, samples, period)
	})
}

func (uc *AnalyticsUseCase) Prediction(ctx context.Context, w Window, period, horizon int) (models.PredictionResult, error) {
	return cached(ctx, uc, KindPrediction, w, []any{period, horizon}, func(ctx context.Context, _ Window, samples []models.Sample) (models.PredictionResult, error) {
		d, err := uc.decomposer.Decompose(w.AssetID, samples, period)
		if err != nil {
			return models.PredictionResult{}, fmt.Errorf("prediction: %w", err)
		}
		return uc.forecaster.Forecast(d, horizon)
	})
}

// cached resolves the cache key from the latest sample, then loads the window on a miss.
// compute sees the effective window, so a cached value depends only on its key.
func cached[T any](ctx context.Context, uc *AnalyticsUseCase, kind string, w Window, params []any, compute func(context.Context, Window, []models.Sample) (T, error)) (T, error) {
	start := time.Now()
	var zero T

	latest, err := uc.store.Latest(ctx, w.AssetID)
	if err != nil {
		uc.fail(kind, w.AssetID, err)
		return zero, fmt.Errorf("%s %s: %w", kind, w.AssetID, err)
	}
	// an open or future end resolves to the latest sample, which keeps the key stable
	end := w.To
	if end.IsZero() || end.After(latest.Timestamp) {
		end = latest.Timestamp
	}
	ew := Window{AssetID: w.AssetID, From: w.From, To: end}
	keyParams := append([]any{w.AssetID, latest.Timestamp.UnixMicro(), w.From.UnixMicro(), end.UnixMicro()}, params...)
	key := cache.GenerateKeyWithParams("analytics:"+kind, keyParams...)

	v, hit, err := cache.GetOrLoad(ctx, uc.cache, key, uc.ttl, func(ctx context.Context) (T, error) {
		samples, err := uc.store.Query(ctx, ew.AssetID, ew.From, ew.To)
		if err != nil {
			return zero, err
		}
		return compute(ctx, ew, samples)
	})
	if uc.cache != nil {
		uc.metrics.CacheLookup(kind, hit)
	}
	if err != nil {
		uc.fail(kind, w.AssetID, err)
		return zero, fmt.Errorf("%s %s: %w", kind, w.AssetID, err)
	}
	uc.metrics.ObserveCompute(kind, time.Since(start).Seconds())
	return v, nil
}

func (uc *AnalyticsUseCase) fail(kind, assetID string, err error) {
	class := "infrastructure"
	if models.IsBusiness(err) || errors.Is(err, models.ErrAssetNotFound) {
		class = "business"
	}
	uc.metrics.Error(kind, class)
	if uc.l != nil && class == "infrastructure" {
		uc.l.Error("analytics failed", applogger.String("kind", kind), applogger.String("asset", assetID), applogger.Error(err))
	}
}
