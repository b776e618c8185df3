package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/stitchwork/stitch/model"
	"github.com/stretchr/testify/require"
)

func TestInMemExecutionQueue(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, queue *InMemExecutionQueue){
		"test enqueue claim ack":            testEnqueueClaimAck,
		"test claim times out empty":        testClaimTimeout,
		"test entry claimed exactly once":   testExactlyOnce,
		"test claim honors context cancel":  testClaimCancel,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, NewInMemExecutionQueue(100*time.Millisecond))
		})
	}
}

func testEnqueueClaimAck(t *testing.T, queue *InMemExecutionQueue) {
	ctx := context.Background()
	require.NoError(t, queue.EnsureGroup(ctx))
	require.NoError(t, queue.Enqueue(ctx, model.ExecutionRequest{ExecutionId: "e1", WorkflowId: "w1"}))

	claimed, err := queue.Claim(ctx, "worker-1")
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.Equal(t, "e1", claimed.ExecutionId)
	require.Equal(t, "w1", claimed.WorkflowId)
	require.NotEmpty(t, claimed.MessageId)
	require.Equal(t, 1, queue.PendingCount())

	require.NoError(t, queue.Ack(ctx, claimed.MessageId))
	require.Zero(t, queue.PendingCount())
}

func testClaimTimeout(t *testing.T, queue *InMemExecutionQueue) {
	start := time.Now()
	claimed, err := queue.Claim(context.Background(), "worker-1")
	require.NoError(t, err)
	require.Nil(t, claimed)
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func testExactlyOnce(t *testing.T, queue *InMemExecutionQueue) {
	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, model.ExecutionRequest{ExecutionId: "e1", WorkflowId: "w1"}))

	results := make(chan *model.QueuedExecution, 2)
	for i := 0; i < 2; i++ {
		go func(consumer string) {
			claimed, err := queue.Claim(ctx, consumer)
			require.NoError(t, err)
			results <- claimed
		}("worker-" + string(rune('a'+i)))
	}

	first := <-results
	second := <-results
	if first == nil {
		first, second = second, first
	}
	require.NotNil(t, first)
	require.Nil(t, second)
	require.Equal(t, "e1", first.ExecutionId)
}

func testClaimCancel(t *testing.T, queue *InMemExecutionQueue) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := queue.Claim(ctx, "worker-1")
	require.ErrorIs(t, err, context.Canceled)
}
