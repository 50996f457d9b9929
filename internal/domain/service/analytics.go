package service

import "CarbonDesk/internal/domain/models"

// Decomposer splits an ordered sample window into trend, seasonal and residual parts.
type Decomposer interface {
	Decompose(assetID string, samples []models.Sample, period int) (models.SeasonalDecomposition, error)
}

// Forecaster projects a decomposition forward by horizon steps.
type Forecaster interface {
	Forecast(d models.SeasonalDecomposition, horizon int) (models.PredictionResult, error)
}
