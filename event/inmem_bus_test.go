package event

import (
	"context"
	"testing"

	"github.com/stitchwork/stitch/model"
	"github.com/stretchr/testify/require"
)

func TestInMemBus(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, bus *InMemBus){
		"test publish reaches subscriber":       testPublishSubscribe,
		"test unsubscribe stops delivery":       testUnsubscribe,
		"test channels are isolated":            testChannelIsolation,
		"test publish stamps timestamp":         testTimestamp,
		"test multiple subscribers on channel":  testFanOut,
	} {
		t.Run(scenario, func(t *testing.T) {
			bus := NewInMemBus()
			require.NoError(t, bus.Start())
			defer bus.Stop()
			fn(t, bus)
		})
	}
}

func testPublishSubscribe(t *testing.T, bus *InMemBus) {
	var got []model.Event
	unsub, err := bus.Subscribe(ExecutionChannel("e1"), func(ev model.Event) {
		got = append(got, ev)
	})
	require.NoError(t, err)
	defer unsub()

	err = bus.Publish(context.Background(), ExecutionChannel("e1"), model.Event{
		Type:        model.EVENT_EXECUTION_STARTED,
		ExecutionId: "e1",
		WorkflowId:  "w1",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, model.EVENT_EXECUTION_STARTED, got[0].Type)
}

func testUnsubscribe(t *testing.T, bus *InMemBus) {
	count := 0
	unsub, err := bus.Subscribe(ExecutionChannel("e1"), func(ev model.Event) {
		count++
	})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), ExecutionChannel("e1"), model.Event{Type: model.EVENT_NODE_STARTED}))
	unsub()
	require.NoError(t, bus.Publish(context.Background(), ExecutionChannel("e1"), model.Event{Type: model.EVENT_NODE_SUCCEEDED}))
	require.Equal(t, 1, count)
}

func testChannelIsolation(t *testing.T, bus *InMemBus) {
	count := 0
	unsub, err := bus.Subscribe(WorkflowChannel("w1"), func(ev model.Event) {
		count++
	})
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, bus.Publish(context.Background(), WorkflowChannel("w2"), model.Event{Type: model.EVENT_NODE_STARTED}))
	require.Zero(t, count)
	require.NoError(t, bus.Publish(context.Background(), WorkflowChannel("w1"), model.Event{Type: model.EVENT_NODE_STARTED}))
	require.Equal(t, 1, count)
}

func testTimestamp(t *testing.T, bus *InMemBus) {
	var got model.Event
	unsub, err := bus.Subscribe(ExecutionChannel("e1"), func(ev model.Event) {
		got = ev
	})
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, bus.Publish(context.Background(), ExecutionChannel("e1"), model.Event{Type: model.EVENT_NODE_STARTED}))
	require.NotZero(t, got.Timestamp)
}

func testFanOut(t *testing.T, bus *InMemBus) {
	first, second := 0, 0
	unsub1, err := bus.Subscribe(ExecutionChannel("e1"), func(ev model.Event) { first++ })
	require.NoError(t, err)
	defer unsub1()
	unsub2, err := bus.Subscribe(ExecutionChannel("e1"), func(ev model.Event) { second++ })
	require.NoError(t, err)
	defer unsub2()

	require.NoError(t, bus.Publish(context.Background(), ExecutionChannel("e1"), model.Event{Type: model.EVENT_NODE_STARTED}))
	require.Equal(t, 1, first)
	require.Equal(t, 1, second)
}
