package models

import "time"

// Percentiles holds nearest-rank percentiles of a window.
type Percentiles struct {
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
	P99 float64 `json:"p99"`
}

type StatisticsResult struct {
	AssetID     string      `json:"asset_id"`
	WindowStart time.Time   `json:"window_start"`
	WindowEnd   time.Time   `json:"window_end"`
	Mean        float64     `json:"mean"`
	Variance    float64     `json:"variance"`
	StdDev      float64     `json:"std_dev"`
	Min         float64     `json:"min"`
	Max         float64     `json:"max"`
	Percentiles Percentiles `json:"percentiles"`
	Volatility  float64     `json:"volatility"` // std-dev of log returns
	SampleCount int         `json:"sample_count"`
}

// SeasonalDecomposition splits a price series into trend, seasonal and residual parts.
// Edge[i] marks points where the centered trend is unavailable; Trend and Residual
// are zero there.
type SeasonalDecomposition struct {
	AssetID    string      `json:"asset_id"`
	Period     int         `json:"period"`
	Timestamps []time.Time `json:"timestamps"`
	Original   []float64   `json:"original"`
	Trend      []float64   `json:"trend"`
	Seasonal   []float64   `json:"seasonal"`
	Residual   []float64   `json:"residual"`
	Edge       []bool      `json:"edge"`
	// SeasonalIndex is the centered per-phase offset, len == Period.
	SeasonalIndex []float64 `json:"seasonal_index"`
}

type ForecastPoint struct {
	Timestamp      time.Time `json:"timestamp"`
	Value          float64   `json:"value"`
	ConfidenceLow  float64   `json:"confidence_low"`
	ConfidenceHigh float64   `json:"confidence_high"`
}

type PredictionResult struct {
	AssetID  string          `json:"asset_id"`
	Horizon  int             `json:"horizon"`
	Period   int             `json:"period"`
	Step     time.Duration   `json:"step_ns"`
	Forecast []ForecastPoint `json:"forecast"`
}

// AssetMetrics is the per-asset input to ranking.
type AssetMetrics struct {
	AssetID        string  `json:"asset_id"`
	LatestPrice    float64 `json:"latest_price"`
	TrendSlope     float64 `json:"trend_slope"`
	Volatility     float64 `json:"volatility"`
	LiquidityDepth float64 `json:"liquidity_depth"`
}

type RankedAsset struct {
	AssetID    string             `json:"asset_id"`
	Score      float64            `json:"score"`
	Normalized map[string]float64 `json:"normalized,omitempty"`
}

type RankingResult struct {
	Weights map[string]float64 `json:"weights"`
	Ranking []RankedAsset      `json:"ranking"`
}

// MetricDelta is one row of a pairwise comparison.
type MetricDelta struct {
	Metric      string  `json:"metric"`
	A           float64 `json:"a"`
	B           float64 `json:"b"`
	Delta       float64 `json:"delta"`
	NormalizedA float64 `json:"normalized_a"`
	NormalizedB float64 `json:"normalized_b"`
}

type Comparison struct {
	AssetA        string        `json:"asset_a"`
	AssetB        string        `json:"asset_b"`
	Metrics       []MetricDelta `json:"metrics"`
	ScoreA        float64       `json:"score_a"`
	ScoreB        float64       `json:"score_b"`
	RelativeScore float64       `json:"relative_score"`
}

// AssetOverview bundles the analytics of one asset; Errors holds per-part failures.
type AssetOverview struct {
	AssetID    string                 `json:"asset_id"`
	Timestamp  time.Time              `json:"timestamp"`
	Statistics *StatisticsResult      `json:"statistics,omitempty"`
	Seasonal   *SeasonalDecomposition `json:"seasonal,omitempty"`
	Prediction *PredictionResult      `json:"prediction,omitempty"`
	Errors     map[string]string      `json:"errors,omitempty"`
}
