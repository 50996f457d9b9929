package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"CarbonDesk/pkg/logger"
)

// Message is the envelope stored in a Redis list.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// RedisPublisher pushes messages onto capped Redis lists, one list per message type.
// Consumers are external (ops tooling reads the lists).
type RedisPublisher struct {
	client    *redis.Client
	keyPrefix string
	maxLen    int64
}

type RedisPublisherOption func(*RedisPublisher)

func WithKeyPrefix(prefix string) RedisPublisherOption {
	return func(r *RedisPublisher) { r.keyPrefix = prefix }
}

// WithMaxLen caps each list; older messages are trimmed on push.
func WithMaxLen(n int64) RedisPublisherOption {
	return func(r *RedisPublisher) {
		if n > 0 {
			r.maxLen = n
		}
	}
}

func NewRedisPublisher(client *redis.Client, opts ...RedisPublisherOption) *RedisPublisher {
	p := &RedisPublisher{client: client, keyPrefix: "carbondesk:queue", maxLen: 10000}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (r *RedisPublisher) Key(msgType string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, msgType)
}

// PublishMessage implements logger.Publisher.
func (r *RedisPublisher) PublishMessage(ctx context.Context, msgType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	data, err := json.Marshal(Message{ID: uuid.NewString(), Type: msgType, Payload: raw, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.Key(msgType)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, r.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("lpush %s: %w", key, err)
	}
	return nil
}

var _ logger.Publisher = (*RedisPublisher)(nil)
