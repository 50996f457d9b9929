package usecase

import (
	"context"
	"fmt"
	"time"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/services/export"
)

// ExportParams selects the result to render; which fields apply depends on Kind.
type ExportParams struct {
	Kind     string
	Format   string
	Window   Window
	Period   int
	Horizon  int
	Assets   []string
	Weights  map[string]float64
	A, B     string
	Lookback time.Duration
}

// ExportFile is a rendered document.
type ExportFile struct {
	ContentType string
	Filename    string
	Payload     []byte
}

// ExportUseCase computes the requested result and hands it to the renderer.
type ExportUseCase struct {
	an   *AnalyticsUseCase
	rank *RankingUseCase
}

func NewExportUseCase(an *AnalyticsUseCase, rank *RankingUseCase) *ExportUseCase {
	return &ExportUseCase{an: an, rank: rank}
}

func (uc *ExportUseCase) Export(ctx context.Context, p ExportParams) (*ExportFile, error) {
	// reject the format before doing any work
	format, err := export.ParseFormat(p.Format)
	if err != nil {
		return nil, err
	}

	var (
		result  any
		subject string
	)
	switch p.Kind {
	case KindStatistics:
		result, err = uc.an.Statistics(ctx, p.Window)
		subject = p.Window.AssetID
	case KindSeasonal:
		result, err = uc.an.Seasonal(ctx, p.Window, p.Period)
		subject = p.Window.AssetID
	case KindPrediction:
		result, err = uc.an.Prediction(ctx, p.Window, p.Period, p.Horizon)
		subject = p.Window.AssetID
	case "rankings":
		result, err = uc.rank.Rank(ctx, p.Assets, p.Weights, p.Lookback)
		subject = "assets"
	case "comparison":
		result, err = uc.rank.Compare(ctx, p.A, p.B, p.Weights, p.Lookback)
		subject = p.A + "_vs_" + p.B
	default:
		return nil, fmt.Errorf("export: kind %q: %w", p.Kind, models.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}

	payload, err := export.Export(result, format)
	if err != nil {
		return nil, err
	}
	return &ExportFile{
		ContentType: format.ContentType(),
		Filename:    fmt.Sprintf("%s_%s.%s", p.Kind, subject, format.Extension()),
		Payload:     payload,
	}, nil
}
