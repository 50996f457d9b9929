package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"CarbonDesk/internal/domain/models"
	domrepo "CarbonDesk/internal/domain/repository"
	"CarbonDesk/internal/services/analytics"
	"CarbonDesk/internal/services/features"
)

// LiquiditySource reports the fillable amount of an asset right now.
type LiquiditySource interface {
	Depth(ctx context.Context, assetID string) (decimal.Decimal, error)
}

// RankingUseCase gathers AssetMetrics over a trailing window ending at each asset's
// latest sample and feeds them to the ranking engine.
type RankingUseCase struct {
	store       domrepo.SampleStore
	liquidity   LiquiditySource
	concurrency int
}

func NewRankingUseCase(store domrepo.SampleStore, liquidity LiquiditySource) *RankingUseCase {
	return &RankingUseCase{store: store, liquidity: liquidity, concurrency: 8}
}

// AssetMetrics derives ranking inputs for one asset.
func (uc *RankingUseCase) AssetMetrics(ctx context.Context, assetID string, lookback time.Duration) (models.AssetMetrics, error) {
	latest, err := uc.store.Latest(ctx, assetID)
	if err != nil {
		return models.AssetMetrics{}, fmt.Errorf("metrics %s: %w", assetID, err)
	}
	samples, err := uc.store.Query(ctx, assetID, latest.Timestamp.Add(-lookback), latest.Timestamp)
	if err != nil {
		return models.AssetMetrics{}, fmt.Errorf("metrics %s: %w", assetID, err)
	}
	m := models.AssetMetrics{
		AssetID:     assetID,
		LatestPrice: latest.Price,
		TrendSlope:  features.TrendSlope(samples),
		Volatility:  features.RealizedVolatility(features.ComputeLogReturns(samples), 0),
	}
	if uc.liquidity != nil {
		depth, err := uc.liquidity.Depth(ctx, assetID)
		if err != nil {
			return models.AssetMetrics{}, fmt.Errorf("metrics %s: depth: %w", assetID, err)
		}
		m.LiquidityDepth = depth.InexactFloat64()
	}
	return m, nil
}

// Rank validates weights before touching the store, then collects metrics in parallel.
func (uc *RankingUseCase) Rank(ctx context.Context, assetIDs []string, weights map[string]float64, lookback time.Duration) (models.RankingResult, error) {
	if err := analytics.ValidateWeights(weights); err != nil {
		return models.RankingResult{}, err
	}
	if len(assetIDs) == 0 {
		return models.RankingResult{}, fmt.Errorf("rank: no assets: %w", models.ErrInvalidArgument)
	}
	ids := uniqueIDs(assetIDs)
	metrics, err := uc.gather(ctx, ids, lookback)
	if err != nil {
		return models.RankingResult{}, err
	}
	return analytics.Rank(metrics, weights)
}

// Compare uses equal weights when weights is empty.
func (uc *RankingUseCase) Compare(ctx context.Context, a, b string, weights map[string]float64, lookback time.Duration) (models.Comparison, error) {
	if a == "" || b == "" || a == b {
		return models.Comparison{}, fmt.Errorf("compare: two distinct assets required: %w", models.ErrInvalidArgument)
	}
	if len(weights) == 0 {
		weights = nil
	} else if err := analytics.ValidateWeights(weights); err != nil {
		return models.Comparison{}, err
	}
	metrics, err := uc.gather(ctx, []string{a, b}, lookback)
	if err != nil {
		return models.Comparison{}, err
	}
	return analytics.Compare(metrics[0], metrics[1], weights)
}

func (uc *RankingUseCase) gather(ctx context.Context, ids []string, lookback time.Duration) ([]models.AssetMetrics, error) {
	if lookback <= 0 {
		return nil, errors.New("gather metrics: lookback must be positive")
	}
	out := make([]models.AssetMetrics, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			m, err := uc.AssetMetrics(gctx, id, lookback)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
