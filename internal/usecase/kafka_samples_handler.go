package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"CarbonDesk/internal/domain/models"
	domrepo "CarbonDesk/internal/domain/repository"
	pkgkafka "CarbonDesk/pkg/kafka"
)

// KafkaSamplesHandler appends samples from the ingest topic to the store.
//
// message schema: {"asset_id", "ts_ms", "price", "volume"}
type KafkaSamplesHandler struct {
	topic   string
	store   domrepo.SampleStore
	metrics domrepo.Metrics
}

func NewKafkaSamplesHandler(topic string, store domrepo.SampleStore, metrics domrepo.Metrics) *KafkaSamplesHandler {
	return &KafkaSamplesHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaSamplesHandler) Topic() string { return h.topic }

// Handle drops duplicate or late samples instead of retrying them; malformed
// messages go straight to the DLQ.
func (h *KafkaSamplesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		AssetID string  `json:"asset_id"`
		TS      int64   `json:"ts_ms"`
		Price   float64 `json:"price"`
		Volume  float64 `json:"volume"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return pkgkafka.Permanent(fmt.Errorf("decode sample: %w", err))
	}
	if m.AssetID == "" || m.TS <= 0 || m.Price < 0 || m.Volume < 0 {
		h.metrics.RecordError("consumer_invalid")
		return pkgkafka.Permanent(fmt.Errorf("invalid sample for %q: %w", m.AssetID, models.ErrInvalidArgument))
	}
	ts := time.UnixMilli(m.TS).UTC()
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(ts).Seconds())

	start := time.Now()
	err := h.store.Append(ctx, m.AssetID, models.Sample{Timestamp: ts, Price: m.Price, Volume: m.Volume})
	h.metrics.RecordLatency("store_append_seconds", time.Since(start).Seconds())
	switch {
	case errors.Is(err, models.ErrOutOfOrderSample):
		h.metrics.RecordError("consumer_out_of_order")
		return nil
	case err != nil:
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordSampleIngested("kafka", m.AssetID)
	h.metrics.RecordLastPrice(m.AssetID, m.Price)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaSamplesHandler)(nil)
