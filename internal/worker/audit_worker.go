package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/matricula/matricula/internal/config"
	"github.com/matricula/matricula/internal/model"
)

const (
	AuditBatchSize    = 50
	AuditBatchTimeout = 2 * time.Second
	AuditPollTimeout  = 1 * time.Second
)

// ErrQueueEmpty is returned by Queue.Pop when nothing arrived in time.
var ErrQueueEmpty = errors.New("queue empty")

// Queue is the list the audit worker consumes.
type Queue interface {
	// Pop blocks up to timeout; a zero timeout does not block.
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	Push(ctx context.Context, raw string) error
}

// AuditStore persists audit events in bulk.
type AuditStore interface {
	InsertBatch(ctx context.Context, events []model.AuditEvent) error
}

// RedisQueue is a Queue over a Redis list.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

// NewRedisQueue returns the audit queue at config.WorkerKey.PersistAuditQueue.
func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: config.WorkerKey.PersistAuditQueue}
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		v, err := q.rdb.LPop(ctx, q.key).Result()
		if errors.Is(err, redis.Nil) {
			return "", ErrQueueEmpty
		}
		return v, err
	}

	item, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrQueueEmpty
	}
	if err != nil {
		return "", err
	}
	if len(item) < 2 {
		return "", ErrQueueEmpty
	}
	return item[1], nil
}

func (q *RedisQueue) Push(ctx context.Context, raw string) error {
	return q.rdb.RPush(ctx, q.key, raw).Err()
}

// AuditWorker consumes persist_audit_queue and inserts events in batches.
type AuditWorker struct {
	queue Queue
	store AuditStore
	log   zerolog.Logger

	batchSize    int
	batchTimeout time.Duration
	pollTimeout  time.Duration
}

// NewAuditWorker creates a new AuditWorker.
func NewAuditWorker(queue Queue, store AuditStore, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		queue:        queue,
		store:        store,
		log:          log.With().Str("component", "audit_worker").Logger(),
		batchSize:    AuditBatchSize,
		batchTimeout: AuditBatchTimeout,
		pollTimeout:  AuditPollTimeout,
	}
}

// Start begins the worker loop. Call in a goroutine; it returns after ctx is
// cancelled and the queue has been drained.
func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	batch := make([]model.AuditEvent, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= w.batchSize || time.Since(lastFlush) >= w.batchTimeout) {
			w.flush(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			w.flush(context.Background(), batch)
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
		}

		raw, err := w.queue.Pop(ctx, w.pollTimeout)
		if err != nil {
			if !errors.Is(err, ErrQueueEmpty) && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("Pop error")
				time.Sleep(w.pollTimeout)
			}
			continue
		}

		var e model.AuditEvent
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			w.log.Error().Err(err).Msg("Invalid JSON payload")
			continue
		}
		batch = append(batch, e)
	}
}

// flush inserts batch, requeueing it on failure.
func (w *AuditWorker) flush(ctx context.Context, batch []model.AuditEvent) bool {
	if len(batch) == 0 {
		return true
	}

	if err := w.store.InsertBatch(ctx, batch); err != nil {
		w.log.Error().Err(err).Int("count", len(batch)).Msg("Batch insert failed, requeueing")
		for _, e := range batch {
			raw, _ := json.Marshal(e)
			if err := w.queue.Push(ctx, string(raw)); err != nil {
				w.log.Error().Err(err).Msg("Requeue failed, event lost")
			}
		}
		return false
	}

	w.log.Debug().Int("count", len(batch)).Msg("Batch persisted")
	return true
}

// drain persists all remaining items in the queue before shutdown.
func (w *AuditWorker) drain(ctx context.Context) {
	drained := 0
	batch := make([]model.AuditEvent, 0, w.batchSize)

	for {
		raw, err := w.queue.Pop(ctx, 0)
		if err != nil {
			break
		}

		var e model.AuditEvent
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}
		batch = append(batch, e)

		if len(batch) >= w.batchSize {
			if !w.flush(ctx, batch) {
				return
			}
			drained += len(batch)
			batch = batch[:0]
		}
	}

	if w.flush(ctx, batch) {
		drained += len(batch)
	}
	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
