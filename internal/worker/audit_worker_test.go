package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/matricula/matricula/internal/model"
)

type memQueue struct {
	mu    sync.Mutex
	items []string
}

func (q *memQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return v, nil
		}
		q.mu.Unlock()

		if timeout <= 0 || time.Now().After(deadline) || ctx.Err() != nil {
			return "", ErrQueueEmpty
		}
		time.Sleep(time.Millisecond)
	}
}

func (q *memQueue) Push(_ context.Context, raw string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, raw)
	return nil
}

func (q *memQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type memAuditStore struct {
	mu      sync.Mutex
	batches [][]model.AuditEvent
	fail    bool
}

func (s *memAuditStore) InsertBatch(_ context.Context, events []model.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return context.DeadlineExceeded
	}
	cp := append([]model.AuditEvent(nil), events...)
	s.batches = append(s.batches, cp)
	return nil
}

func (s *memAuditStore) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func push(t *testing.T, q *memQueue, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		raw, err := json.Marshal(model.AuditEvent{Kind: model.AuditStudentEnrolled, SubjectID: i + 1})
		if err != nil {
			t.Fatal(err)
		}
		_ = q.Push(context.Background(), string(raw))
	}
}

func newTestWorker(q Queue, s AuditStore) *AuditWorker {
	w := NewAuditWorker(q, s, zerolog.Nop())
	w.batchSize = 3
	w.batchTimeout = 20 * time.Millisecond
	w.pollTimeout = 5 * time.Millisecond
	return w
}

func TestAuditWorkerBatchesEvents(t *testing.T) {
	q := &memQueue{}
	store := &memAuditStore{}
	push(t, q, 7)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestWorker(q, store).Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for store.total() < 7 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if store.total() != 7 {
		t.Fatalf("persisted %d events, want 7", store.total())
	}
	for _, b := range store.batches {
		if len(b) > 3 {
			t.Fatalf("batch of %d exceeds size limit", len(b))
		}
	}
}

func TestAuditWorkerDrainsOnShutdown(t *testing.T) {
	q := &memQueue{}
	store := &memAuditStore{}
	push(t, q, 5)

	w := newTestWorker(q, store)
	w.drain(context.Background())

	if store.total() != 5 || q.len() != 0 {
		t.Fatalf("drained %d, left %d", store.total(), q.len())
	}
}

func TestAuditWorkerRequeuesOnFailure(t *testing.T) {
	q := &memQueue{}
	store := &memAuditStore{fail: true}

	w := newTestWorker(q, store)
	batch := []model.AuditEvent{{Kind: model.AuditLogin}, {Kind: model.AuditPaymentRecorded}}
	if w.flush(context.Background(), batch) {
		t.Fatal("flush should report failure")
	}
	if q.len() != 2 {
		t.Fatalf("requeued %d events, want 2", q.len())
	}
}
