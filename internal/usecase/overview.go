package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CarbonDesk/internal/domain/models"
)

// OverviewUseCase fans the per-asset analytics out concurrently and reports
// failures per part instead of failing the whole response.
type OverviewUseCase struct {
	an      *AnalyticsUseCase
	timeout time.Duration
}

func NewOverviewUseCase(an *AnalyticsUseCase) *OverviewUseCase {
	return &OverviewUseCase{an: an, timeout: 10 * time.Second}
}

func (uc *OverviewUseCase) GetOverview(ctx context.Context, w Window, period, horizon int) (*models.AssetOverview, error) {
	if w.AssetID == "" {
		return nil, fmt.Errorf("overview: asset required: %w", models.ErrInvalidArgument)
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	res := &models.AssetOverview{
		AssetID:   w.AssetID,
		Timestamp: time.Now().UTC(),
		Errors:    map[string]string{},
	}

	type item struct {
		name string
		val  any
		err  error
	}
	ch := make(chan item, 3)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.an.Statistics(ctx, w)
		ch <- item{KindStatistics, v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.an.Seasonal(ctx, w, period)
		ch <- item{KindSeasonal, v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.an.Prediction(ctx, w, period, horizon)
		ch <- item{KindPrediction, v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	var errs []error
	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			errs = append(errs, it.err)
			continue
		}
		switch v := it.val.(type) {
		case models.StatisticsResult:
			res.Statistics = &v
		case models.SeasonalDecomposition:
			res.Seasonal = &v
		case models.PredictionResult:
			res.Prediction = &v
		}
	}

	// nothing succeeded: surface the first cause so the caller gets a real status
	if len(errs) == 3 {
		return nil, errs[0]
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}
