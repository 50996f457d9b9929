package usecase

import (
	"context"
	"fmt"
	"time"

	"CarbonDesk/internal/domain/models"
	drepo "CarbonDesk/internal/domain/repository"
)

const (
	BackendStore = "store"
	BackendKafka = "kafka"
)

// SampleProcessor routes ingested samples either straight into the store or onto the bus.
type SampleProcessor struct {
	pub     drepo.SamplePublisher
	store   drepo.SampleStore
	metrics drepo.Metrics
	backend string
}

func NewSampleProcessor(pub drepo.SamplePublisher, store drepo.SampleStore, metrics drepo.Metrics, backend string) *SampleProcessor {
	return &SampleProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

func (p *SampleProcessor) Process(ctx context.Context, s *models.AssetSample) error {
	if s == nil {
		return fmt.Errorf("sample is nil")
	}
	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		err = p.pub.Publish(ctx, s)
	case BackendStore:
		err = p.store.Append(ctx, s.AssetID, s.Sample)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process sample %s: %w", s.AssetID, err)
	}

	p.metrics.RecordSampleIngested(p.backend, s.AssetID)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch appends one by one on the store backend; the first failure stops the batch.
func (p *SampleProcessor) ProcessBatch(ctx context.Context, samples []*models.AssetSample) error {
	if len(samples) == 0 {
		return nil
	}
	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		err = p.pub.PublishBatch(ctx, samples)
	case BackendStore:
		for _, s := range samples {
			if err = p.store.Append(ctx, s.AssetID, s.Sample); err != nil {
				break
			}
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, s := range samples {
		p.metrics.RecordSampleIngested(p.backend, s.AssetID)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close releases the publisher.
func (p *SampleProcessor) Close() error {
	if p.pub != nil {
		return p.pub.Close()
	}
	return nil
}
