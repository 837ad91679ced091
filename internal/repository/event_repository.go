package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/matricula/matricula/internal/config"
	"github.com/matricula/matricula/internal/model"
)

// EventRepository fans an audit event out to the persistence queue drained by
// the audit worker and to the live enrollment channel.
type EventRepository struct {
	rdb *redis.Client
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(rdb *redis.Client) *EventRepository {
	return &EventRepository{rdb: rdb}
}

// Notify queues e for persistence. Kinds that Broadcast are also published to
// the enrollment channel.
func (r *EventRepository) Notify(ctx context.Context, e model.AuditEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistAuditQueue, payload)
	if e.Kind.Broadcast() {
		pipe.Publish(ctx, config.CacheKey.EnrollmentChannel(), payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("notify %s: %w", e.Kind, err)
	}
	return nil
}

// Subscribe opens a Pub/Sub subscription on the enrollment channel.
// The caller must Close the returned closer.
func (r *EventRepository) Subscribe(ctx context.Context) (<-chan *redis.Message, io.Closer) {
	sub := r.rdb.Subscribe(ctx, config.CacheKey.EnrollmentChannel())
	return sub.Channel(), sub
}

// QueueDepth returns the number of events not yet persisted.
func (r *EventRepository) QueueDepth(ctx context.Context) (int64, error) {
	return r.rdb.LLen(ctx, config.WorkerKey.PersistAuditQueue).Result()
}
