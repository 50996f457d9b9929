package analytics

import (
	"fmt"
	"math"
	"sort"

	"CarbonDesk/internal/domain/models"
)

// Ranking metric keys.
const (
	MetricPrice      = "price"
	MetricTrend      = "trend"
	MetricVolatility = "volatility"
	MetricLiquidity  = "liquidity"
)

// MetricKeys is the fixed scoring order; summing in this order keeps scores reproducible.
var MetricKeys = []string{MetricPrice, MetricTrend, MetricVolatility, MetricLiquidity}

const weightTolerance = 1e-9

// ValidateWeights requires known, non-negative weights summing to 1.
func ValidateWeights(w map[string]float64) error {
	if len(w) == 0 {
		return fmt.Errorf("no weights: %w", models.ErrInvalidWeights)
	}
	sum := 0.0
	for k, v := range w {
		if !isMetric(k) {
			return fmt.Errorf("unknown metric %q: %w", k, models.ErrInvalidWeights)
		}
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s=%v: %w", k, v, models.ErrInvalidWeights)
		}
		sum += v
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights sum to %v: %w", sum, models.ErrInvalidWeights)
	}
	return nil
}

// EqualWeights spreads weight evenly across all metrics.
func EqualWeights() map[string]float64 {
	w := make(map[string]float64, len(MetricKeys))
	for _, k := range MetricKeys {
		w[k] = 1 / float64(len(MetricKeys))
	}
	return w
}

// Normalize min-max scales every metric across the candidates. A metric where all
// candidates are equal normalizes to 0. Volatility is a cost, so its scale is inverted.
func Normalize(candidates []models.AssetMetrics) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(candidates))
	for _, c := range candidates {
		out[c.AssetID] = make(map[string]float64, len(MetricKeys))
	}
	for _, key := range MetricKeys {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, c := range candidates {
			v := metricValue(c, key)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		for _, c := range candidates {
			norm := 0.0
			if hi > lo {
				norm = (metricValue(c, key) - lo) / (hi - lo)
				if key == MetricVolatility {
					norm = 1 - norm
				}
			}
			out[c.AssetID][key] = norm
		}
	}
	return out
}

// Rank scores candidates by weighted normalized metrics. Order: score descending,
// then asset id ascending. Duplicate asset ids are collapsed to the first occurrence.
func Rank(candidates []models.AssetMetrics, weights map[string]float64) (models.RankingResult, error) {
	if err := ValidateWeights(weights); err != nil {
		return models.RankingResult{}, fmt.Errorf("rank: %w", err)
	}
	uniq := dedupe(candidates)
	norm := Normalize(uniq)

	ranked := make([]models.RankedAsset, 0, len(uniq))
	for _, c := range uniq {
		ranked = append(ranked, models.RankedAsset{
			AssetID:    c.AssetID,
			Score:      score(norm[c.AssetID], weights),
			Normalized: norm[c.AssetID],
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].AssetID < ranked[j].AssetID
	})
	return models.RankingResult{Weights: weights, Ranking: ranked}, nil
}

// Compare normalizes the pair and reports raw deltas (a-b) per metric.
// Nil weights mean EqualWeights.
func Compare(a, b models.AssetMetrics, weights map[string]float64) (models.Comparison, error) {
	if weights == nil {
		weights = EqualWeights()
	}
	if err := ValidateWeights(weights); err != nil {
		return models.Comparison{}, fmt.Errorf("compare: %w", err)
	}
	norm := Normalize([]models.AssetMetrics{a, b})
	na, nb := norm[a.AssetID], norm[b.AssetID]

	cmp := models.Comparison{AssetA: a.AssetID, AssetB: b.AssetID}
	for _, key := range MetricKeys {
		va, vb := metricValue(a, key), metricValue(b, key)
		cmp.Metrics = append(cmp.Metrics, models.MetricDelta{
			Metric:      key,
			A:           va,
			B:           vb,
			Delta:       va - vb,
			NormalizedA: na[key],
			NormalizedB: nb[key],
		})
	}
	cmp.ScoreA = score(na, weights)
	cmp.ScoreB = score(nb, weights)
	cmp.RelativeScore = cmp.ScoreA - cmp.ScoreB
	return cmp, nil
}

func score(norm map[string]float64, weights map[string]float64) float64 {
	s := 0.0
	for _, key := range MetricKeys {
		s += weights[key] * norm[key]
	}
	return s
}

func metricValue(m models.AssetMetrics, key string) float64 {
	switch key {
	case MetricPrice:
		return m.LatestPrice
	case MetricTrend:
		return m.TrendSlope
	case MetricVolatility:
		return m.Volatility
	case MetricLiquidity:
		return m.LiquidityDepth
	default:
		return 0
	}
}

func isMetric(key string) bool {
	for _, k := range MetricKeys {
		if k == key {
			return true
		}
	}
	return false
}

func dedupe(in []models.AssetMetrics) []models.AssetMetrics {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.AssetMetrics, 0, len(in))
	for _, m := range in {
		if _, ok := seen[m.AssetID]; ok {
			continue
		}
		seen[m.AssetID] = struct{}{}
		out = append(out, m)
	}
	return out
}
