package repository

import (
	"context"

	"CarbonDesk/internal/domain/models"
	"CarbonDesk/internal/domain/repository"
	pkgkafka "CarbonDesk/pkg/kafka"
)

// Event type header values.
const (
	EventSample = "sample"
	EventAudit  = "audit"
	EventFill   = "fill"
)

// samplePayload is the wire form of a sample on the samples topic.
type samplePayload struct {
	AssetID string  `json:"asset_id"`
	TS      int64   `json:"ts_ms"`
	Price   float64 `json:"price"`
	Volume  float64 `json:"volume"`
}

func toPayload(s *models.AssetSample) samplePayload {
	return samplePayload{AssetID: s.AssetID, TS: s.Timestamp.UnixMilli(), Price: s.Price, Volume: s.Volume}
}

// KafkaSamplePublisher keys messages by asset so one asset stays on one partition.
type KafkaSamplePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaSamplePublisher(producer *pkgkafka.Producer, topic string) *KafkaSamplePublisher {
	return &KafkaSamplePublisher{producer: producer, topic: topic}
}

func (p *KafkaSamplePublisher) Publish(ctx context.Context, s *models.AssetSample) error {
	return p.producer.Publish(ctx, p.topic, pkgkafka.Message{
		Key:     []byte(s.AssetID),
		Value:   toPayload(s),
		Headers: map[string]string{pkgkafka.HeaderEventType: EventSample},
	})
}

func (p *KafkaSamplePublisher) PublishBatch(ctx context.Context, samples []*models.AssetSample) error {
	if len(samples) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(samples))
	for _, s := range samples {
		if s == nil || s.AssetID == "" {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key:     []byte(s.AssetID),
			Value:   toPayload(s),
			Headers: map[string]string{pkgkafka.HeaderEventType: EventSample},
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSamplePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaEventPublisher emits audit entries and order fills.
type KafkaEventPublisher struct {
	producer   *pkgkafka.Producer
	auditTopic string
	fillTopic  string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, auditTopic, fillTopic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, auditTopic: auditTopic, fillTopic: fillTopic}
}

func (p *KafkaEventPublisher) PublishAudit(ctx context.Context, e models.AuditLogEntry) error {
	return p.producer.Publish(ctx, p.auditTopic, pkgkafka.Message{
		Key:     []byte(e.TargetID),
		Value:   e,
		Headers: map[string]string{pkgkafka.HeaderEventType: EventAudit, "action": e.Action},
	})
}

func (p *KafkaEventPublisher) PublishFill(ctx context.Context, r models.OrderExecutionResult) error {
	return p.producer.Publish(ctx, p.fillTopic, pkgkafka.Message{
		Key:     []byte(r.AssetID),
		Value:   r,
		Headers: map[string]string{pkgkafka.HeaderEventType: EventFill, "status": string(r.Status)},
	})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopEventPublisher drops events; used when no broker is configured.
type NopEventPublisher struct{}

func (NopEventPublisher) PublishAudit(context.Context, models.AuditLogEntry) error        { return nil }
func (NopEventPublisher) PublishFill(context.Context, models.OrderExecutionResult) error { return nil }
func (NopEventPublisher) Close() error                                                   { return nil }

var (
	_ repository.SamplePublisher = (*KafkaSamplePublisher)(nil)
	_ repository.EventPublisher  = (*KafkaEventPublisher)(nil)
	_ repository.EventPublisher  = NopEventPublisher{}
)
