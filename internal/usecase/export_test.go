package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/repository"
)

func TestExportStatisticsCSV(t *testing.T) {
	store := repository.NewMemorySampleStore()
	seed(t, store, "mangrove", mangrove, 24*time.Hour)
	uc := NewExportUseCase(newAnalytics(store), NewRankingUseCase(store, nil))

	f, err := uc.Export(context.Background(), ExportParams{Kind: KindStatistics, Format: "csv", Window: Window{AssetID: "mangrove"}})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", f.ContentType)
	assert.Equal(t, "statistics_mangrove.csv", f.Filename)
	assert.Contains(t, string(f.Payload), "sample_count,8")
}

func TestExportRejectsFormatFirst(t *testing.T) {
	uc := NewExportUseCase(newAnalytics(repository.NewMemorySampleStore()), nil)
	_, err := uc.Export(context.Background(), ExportParams{Kind: KindStatistics, Format: "pdf", Window: Window{AssetID: "kelp"}})
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)

	_, err = uc.Export(context.Background(), ExportParams{Kind: "candles", Format: "json"})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}
