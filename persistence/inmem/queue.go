package inmem

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
)

var _ persistence.ExecutionQueue = new(InMemExecutionQueue)

// InMemExecutionQueue mirrors the stream queue contract in process
// memory: delivery to exactly one claimant, entries pending until
// acked. Useful for single-node runs and tests.
type InMemExecutionQueue struct {
	mu        sync.Mutex
	nextId    int
	entries   chan model.QueuedExecution
	pending   map[string]model.QueuedExecution
	blockTime time.Duration
}

func NewInMemExecutionQueue(blockTime time.Duration) *InMemExecutionQueue {
	if blockTime <= 0 {
		blockTime = time.Second
	}
	return &InMemExecutionQueue{
		entries:   make(chan model.QueuedExecution, 1024),
		pending:   make(map[string]model.QueuedExecution),
		blockTime: blockTime,
	}
}

func (q *InMemExecutionQueue) Enqueue(ctx context.Context, req model.ExecutionRequest) error {
	q.mu.Lock()
	q.nextId++
	queued := model.QueuedExecution{
		MessageId:        strconv.Itoa(q.nextId),
		ExecutionRequest: req,
	}
	q.mu.Unlock()
	select {
	case q.entries <- queued:
		return nil
	default:
		return persistence.StorageLayerError{Message: "execution queue full"}
	}
}

func (q *InMemExecutionQueue) EnsureGroup(ctx context.Context) error {
	return nil
}

func (q *InMemExecutionQueue) Claim(ctx context.Context, consumer string) (*model.QueuedExecution, error) {
	timer := time.NewTimer(q.blockTime)
	defer timer.Stop()
	select {
	case queued := <-q.entries:
		q.mu.Lock()
		q.pending[queued.MessageId] = queued
		q.mu.Unlock()
		return &queued, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *InMemExecutionQueue) Ack(ctx context.Context, messageId string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, messageId)
	return nil
}

// PendingCount reports entries claimed but not yet acked.
func (q *InMemExecutionQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
