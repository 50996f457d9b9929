package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"CarbonDesk/internal/domain/models"
	domrepo "CarbonDesk/internal/domain/repository"
	applogger "CarbonDesk/pkg/logger"
)

// Window selects the samples of one asset in [From, To]. A zero bound is open.
type Window struct {
	AssetID string
	From    time.Time
	To      time.Time
}

// TimeSeriesUseCase serves raw samples and OHLCV views of the store.
type TimeSeriesUseCase struct {
	store   domrepo.SampleStore
	metrics domrepo.Metrics
	audit   domrepo.AuditStore
	l       *applogger.Logger
}

func NewTimeSeriesUseCase(store domrepo.SampleStore, metrics domrepo.Metrics) *TimeSeriesUseCase {
	return &TimeSeriesUseCase{store: store, metrics: metrics}
}

// SetLogger injects a structured logger.
func (uc *TimeSeriesUseCase) SetLogger(l *applogger.Logger) { uc.l = l }

// SetAuditStore enables audit entries for AppendAs.
func (uc *TimeSeriesUseCase) SetAuditStore(a domrepo.AuditStore) { uc.audit = a }

// AppendAs stores a sample submitted by actorID and records it in the audit log.
// The sample stays stored if the audit write fails; the failure is logged and counted.
func (uc *TimeSeriesUseCase) AppendAs(ctx context.Context, actorID, assetID, source string, s models.Sample) error {
	if err := uc.Append(ctx, assetID, source, s); err != nil {
		return err
	}
	if uc.audit == nil {
		return nil
	}
	if actorID == "" {
		actorID = "anonymous"
	}
	_, err := uc.audit.Append(ctx, models.AuditLogEntry{
		ActorID:    actorID,
		Action:     models.ActionSampleAppend,
		TargetType: models.TargetAsset,
		TargetID:   assetID,
		Detail: fmt.Sprintf("source=%s ts=%s price=%s volume=%s",
			source, s.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.FormatFloat(s.Price, 'f', -1, 64), strconv.FormatFloat(s.Volume, 'f', -1, 64)),
	})
	if err != nil {
		uc.metrics.RecordError("sample_audit")
		if uc.l != nil {
			uc.l.Warn("sample stored but not audited",
				applogger.String("asset_id", assetID), applogger.String("actor", actorID), applogger.Error(err))
		}
	}
	return nil
}

// Append stores one sample. Out-of-order samples are rejected by the store.
func (uc *TimeSeriesUseCase) Append(ctx context.Context, assetID, source string, s models.Sample) error {
	if assetID == "" {
		return fmt.Errorf("append: asset required: %w", models.ErrInvalidArgument)
	}
	if s.Timestamp.IsZero() || s.Price < 0 || s.Volume < 0 {
		return fmt.Errorf("append %s: invalid sample: %w", assetID, models.ErrInvalidArgument)
	}
	start := time.Now()
	s.Timestamp = s.Timestamp.UTC()
	if err := uc.store.Append(ctx, assetID, s); err != nil {
		uc.metrics.RecordError("append")
		return fmt.Errorf("append %s: %w", assetID, err)
	}
	uc.metrics.RecordSampleIngested(source, assetID)
	uc.metrics.RecordLastPrice(assetID, s.Price)
	uc.metrics.RecordLatency("append", time.Since(start).Seconds())
	return nil
}

// GetTimeSeries returns at most limit samples from the start of the window.
func (uc *TimeSeriesUseCase) GetTimeSeries(ctx context.Context, w Window, limit int) (*models.TimeSeries, error) {
	if w.AssetID == "" {
		return nil, fmt.Errorf("time series: asset required: %w", models.ErrInvalidArgument)
	}
	if !w.From.IsZero() && !w.To.IsZero() && w.From.After(w.To) {
		return nil, fmt.Errorf("time series: from must be <= to: %w", models.ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = 10000
	}
	if limit > 50000 {
		limit = 50000
	}

	samples, err := uc.store.Query(ctx, w.AssetID, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("time series %s: %w", w.AssetID, err)
	}
	if len(samples) > limit {
		samples = samples[:limit]
	}
	return &models.TimeSeries{
		AssetID: w.AssetID,
		From:    w.From,
		To:      w.To,
		Count:   len(samples),
		Samples: samples,
	}, nil
}

// PriceHistory buckets the window into OHLCV candles. Volume is summed per bucket.
func (uc *TimeSeriesUseCase) PriceHistory(ctx context.Context, w Window, iv domrepo.Interval) (*models.PriceHistory, error) {
	if !domrepo.IsValidInterval(iv) {
		return nil, fmt.Errorf("price history: interval %q: %w", iv, models.ErrInvalidArgument)
	}
	samples, err := uc.store.Query(ctx, w.AssetID, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("price history %s: %w", w.AssetID, err)
	}
	return &models.PriceHistory{
		AssetID:  w.AssetID,
		Interval: string(iv),
		From:     w.From,
		To:       w.To,
		Candles:  BuildCandles(w.AssetID, samples, iv),
	}, nil
}

// BuildCandles folds ascending samples into consecutive buckets; empty buckets are skipped.
func BuildCandles(assetID string, samples []models.Sample, iv domrepo.Interval) []models.Candle {
	out := make([]models.Candle, 0)
	for _, s := range samples {
		b := iv.Truncate(s.Timestamp)
		if n := len(out); n > 0 && out[n-1].Bucket.Equal(b) {
			c := &out[n-1]
			c.High = max(c.High, s.Price)
			c.Low = min(c.Low, s.Price)
			c.Close = s.Price
			c.Volume += s.Volume
			c.Count++
			continue
		}
		out = append(out, models.Candle{
			Bucket:  b,
			AssetID: assetID,
			Open:    s.Price,
			High:    s.Price,
			Low:     s.Price,
			Close:   s.Price,
			Volume:  s.Volume,
			Count:   1,
		})
	}
	return out
}
