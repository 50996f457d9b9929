package repository

import (
	"context"
	"iter"
	"time"

	"CarbonDesk/internal/domain/models"
)

// SampleStore is the per-asset append-only time-series store.
// Append fails with models.ErrOutOfOrderSample when the timestamp does not advance.
type SampleStore interface {
	Append(ctx context.Context, assetID string, s models.Sample) error
	Query(ctx context.Context, assetID string, start, end time.Time) ([]models.Sample, error)
	Latest(ctx context.Context, assetID string) (models.Sample, error)
	Assets(ctx context.Context) ([]string, error)
	Health(ctx context.Context) error
}

// AuditStore is the append-only audit trail. Query yields entries in ascending timestamp order.
type AuditStore interface {
	Append(ctx context.Context, e models.AuditLogEntry) (string, error)
	Query(ctx context.Context, f models.AuditFilter) iter.Seq2[models.AuditLogEntry, error]
}

// OrderStore keeps one execution result per order.
type OrderStore interface {
	Save(ctx context.Context, r models.OrderExecutionResult) error
	Get(ctx context.Context, orderID string) (models.OrderExecutionResult, error)
}

// MarketStream is a live source of samples.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.AssetSample, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// SamplePublisher forwards ingested samples to the message bus.
type SamplePublisher interface {
	Publish(ctx context.Context, s *models.AssetSample) error
	PublishBatch(ctx context.Context, samples []*models.AssetSample) error
	Close() error
}

// EventPublisher emits audit and fill events downstream.
type EventPublisher interface {
	PublishAudit(ctx context.Context, e models.AuditLogEntry) error
	PublishFill(ctx context.Context, r models.OrderExecutionResult) error
	Close() error
}

type Metrics interface {
	RecordSampleIngested(source, assetID string)
	RecordError(kind string)
	RecordLastPrice(assetID string, price float64)
	RecordLatency(op string, seconds float64)
	RecordOrder(assetID string, status models.OrderStatus)
}

// UserDirectory is the external user-management collaborator.
type UserDirectory interface {
	ListUsers(ctx context.Context, page, pageSize int) ([]models.User, error)
	CreateUser(ctx context.Context, req models.CreateUserRequest) (models.User, error)
}
