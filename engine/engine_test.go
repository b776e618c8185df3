package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stitchwork/stitch/event"
	"github.com/stitchwork/stitch/metadata"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence/inmem"
	"github.com/stretchr/testify/require"
)

type stubResult struct {
	fields map[string]any
}

func (r stubResult) Fields() map[string]any {
	return r.fields
}

// stubDispatcher records dispatch order and fails the node ids it is
// told to fail.
type stubDispatcher struct {
	dispatched []string
	failures   map[string]error
	block      time.Duration
}

func (d *stubDispatcher) Dispatch(ctx context.Context, node model.Node, execCtx *model.ExecutionContext, workflowId string) (model.NodeResult, error) {
	if d.block > 0 {
		select {
		case <-time.After(d.block):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d.dispatched = append(d.dispatched, node.Id)
	if err, ok := d.failures[node.Id]; ok {
		return nil, err
	}
	return stubResult{fields: map[string]any{"nodeId": node.Id}}, nil
}

type fixture struct {
	workflows  *inmem.InMemWorkflowDao
	executions *inmem.InMemExecutionDao
	bus        *event.InMemBus
	dispatcher *stubDispatcher
	engine     *ExecutionEngine
	events     []model.Event
	unsub      []func()
}

func newFixture(t *testing.T, config Config) *fixture {
	f := &fixture{
		workflows:  inmem.NewInMemWorkflowDao(),
		executions: inmem.NewInMemExecutionDao(),
		bus:        event.NewInMemBus(),
		dispatcher: &stubDispatcher{failures: map[string]error{}},
	}
	require.NoError(t, f.bus.Start())
	f.engine = NewExecutionEngine(metadata.NewService(f.workflows, time.Minute), f.executions, f.dispatcher, f.bus, nil, config)
	return f
}

func (f *fixture) subscribe(t *testing.T, channel string) {
	unsub, err := f.bus.Subscribe(channel, func(ev model.Event) {
		f.events = append(f.events, ev)
	})
	require.NoError(t, err)
	f.unsub = append(f.unsub, unsub)
}

func (f *fixture) seed(t *testing.T, wf model.Workflow, payload map[string]any) string {
	ctx := context.Background()
	require.NoError(t, f.workflows.Save(ctx, wf))
	execution := model.Execution{
		Id:         "exec-1",
		WorkflowId: wf.Id,
		Status:     model.EXEC_STATUS_PENDING,
		TotalTask:  wf.Nodes.Len(),
		Logs:       map[string]string{},
		Output:     model.ExecutionOutput{TriggerPayload: payload},
	}
	require.NoError(t, f.executions.Save(ctx, execution))
	return execution.Id
}

func node(id string) model.Node {
	return model.Node{Id: id, Type: model.NODE_TYPE_TELEGRAM, Config: map[string]any{}, CredentialsId: "cred-1"}
}

func linearWorkflow() model.Workflow {
	return model.Workflow{
		Id:          "wf-1",
		Title:       "three in a row",
		Nodes:       model.NewNodeSet(node("a"), node("b"), node("c")),
		Connections: map[string][]string{"a": {"b"}, "b": {"c"}},
		TriggerType: model.TRIGGER_TYPE_MANUAL,
	}
}

func TestExecutionEngine(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test linear run succeeds":              testLinearRun,
		"test failure stops traversal":          testFailFast,
		"test branch order is declaration order": testBranchOrder,
		"test node timeout fails the node":      testNodeTimeout,
		"test unknown workflow publishes nothing": testUnknownWorkflow,
		"test events carry both channels":        testDualChannelPublish,
	} {
		t.Run(scenario, fn)
	}
}

func testLinearRun(t *testing.T) {
	f := newFixture(t, Config{})
	executionId := f.seed(t, linearWorkflow(), map[string]any{"name": "ada"})
	f.subscribe(t, event.ExecutionChannel(executionId))

	f.engine.Run(context.Background(), executionId, "wf-1")

	require.Equal(t, []string{"a", "b", "c"}, f.dispatcher.dispatched)

	execution, err := f.executions.Get(context.Background(), executionId)
	require.NoError(t, err)
	require.Equal(t, model.EXEC_STATUS_SUCCESS, execution.Status)
	require.Equal(t, 3, execution.TaskDone)
	require.Equal(t, map[string]string{"a": "Success", "b": "Success", "c": "Success"}, execution.Logs)

	var types []model.EventType
	for _, ev := range f.events {
		types = append(types, ev.Type)
	}
	require.Equal(t, []model.EventType{
		model.EVENT_EXECUTION_STARTED,
		model.EVENT_NODE_STARTED, model.EVENT_NODE_SUCCEEDED,
		model.EVENT_NODE_STARTED, model.EVENT_NODE_SUCCEEDED,
		model.EVENT_NODE_STARTED, model.EVENT_NODE_SUCCEEDED,
		model.EVENT_EXECUTION_FINISHED,
	}, types)

	started := f.events[0]
	require.NotNil(t, started.TotalTasks)
	require.Equal(t, 3, *started.TotalTasks)
	finished := f.events[len(f.events)-1]
	require.Equal(t, model.EXEC_STATUS_SUCCESS, finished.Status)
	require.NotNil(t, finished.TasksDone)
	require.Equal(t, 3, *finished.TasksDone)
	for _, ev := range f.events {
		require.NotZero(t, ev.Timestamp)
	}
}

func testFailFast(t *testing.T) {
	f := newFixture(t, Config{})
	f.dispatcher.failures["b"] = fmt.Errorf("telegram rejected the message")
	executionId := f.seed(t, linearWorkflow(), nil)
	f.subscribe(t, event.ExecutionChannel(executionId))

	f.engine.Run(context.Background(), executionId, "wf-1")

	require.Equal(t, []string{"a", "b"}, f.dispatcher.dispatched)

	execution, err := f.executions.Get(context.Background(), executionId)
	require.NoError(t, err)
	require.Equal(t, model.EXEC_STATUS_FAILED, execution.Status)
	require.Equal(t, 1, execution.TaskDone)
	require.Equal(t, "Success", execution.Logs["a"])
	require.Equal(t, "Error: telegram rejected the message", execution.Logs["b"])
	_, ok := execution.Logs["c"]
	require.False(t, ok)

	var types []model.EventType
	for _, ev := range f.events {
		types = append(types, ev.Type)
	}
	require.Equal(t, []model.EventType{
		model.EVENT_EXECUTION_STARTED,
		model.EVENT_NODE_STARTED, model.EVENT_NODE_SUCCEEDED,
		model.EVENT_NODE_STARTED, model.EVENT_NODE_FAILED,
		model.EVENT_EXECUTION_FINISHED,
	}, types)
	finished := f.events[len(f.events)-1]
	require.Equal(t, model.EXEC_STATUS_FAILED, finished.Status)
	require.NotNil(t, finished.TasksDone)
	require.Equal(t, 1, *finished.TasksDone)
}

func testBranchOrder(t *testing.T) {
	f := newFixture(t, Config{})
	// diamond: a fans out to b and c, both join on d. b and c have no
	// dependency on each other, so they run in declaration order.
	wf := model.Workflow{
		Id:          "wf-1",
		Title:       "diamond",
		Nodes:       model.NewNodeSet(node("a"), node("b"), node("c"), node("d")),
		Connections: map[string][]string{"a": {"b", "c"}, "b": {"d"}, "c": {"d"}},
		TriggerType: model.TRIGGER_TYPE_MANUAL,
	}
	executionId := f.seed(t, wf, nil)

	f.engine.Run(context.Background(), executionId, "wf-1")

	require.Equal(t, []string{"a", "b", "c", "d"}, f.dispatcher.dispatched)
	execution, err := f.executions.Get(context.Background(), executionId)
	require.NoError(t, err)
	require.Equal(t, model.EXEC_STATUS_SUCCESS, execution.Status)
	require.Equal(t, 4, execution.TaskDone)
}

func testNodeTimeout(t *testing.T) {
	f := newFixture(t, Config{NodeTimeout: 50 * time.Millisecond})
	f.dispatcher.block = time.Second
	wf := model.Workflow{
		Id:          "wf-1",
		Title:       "slow node",
		Nodes:       model.NewNodeSet(node("a")),
		Connections: map[string][]string{},
		TriggerType: model.TRIGGER_TYPE_MANUAL,
	}
	executionId := f.seed(t, wf, nil)

	f.engine.Run(context.Background(), executionId, "wf-1")

	execution, err := f.executions.Get(context.Background(), executionId)
	require.NoError(t, err)
	require.Equal(t, model.EXEC_STATUS_FAILED, execution.Status)
	require.Contains(t, execution.Logs["a"], "timed out")
}

func testUnknownWorkflow(t *testing.T) {
	f := newFixture(t, Config{})
	f.subscribe(t, event.ExecutionChannel("exec-1"))

	f.engine.Run(context.Background(), "exec-1", "no-such-workflow")

	require.Empty(t, f.dispatcher.dispatched)
	require.Empty(t, f.events)
}

func testDualChannelPublish(t *testing.T) {
	f := newFixture(t, Config{})
	wf := model.Workflow{
		Id:          "wf-1",
		Title:       "single",
		Nodes:       model.NewNodeSet(node("a")),
		Connections: map[string][]string{},
		TriggerType: model.TRIGGER_TYPE_MANUAL,
	}
	executionId := f.seed(t, wf, nil)

	var workflowEvents []model.Event
	unsub, err := f.bus.Subscribe(event.WorkflowChannel("wf-1"), func(ev model.Event) {
		workflowEvents = append(workflowEvents, ev)
	})
	require.NoError(t, err)
	defer unsub()
	f.subscribe(t, event.ExecutionChannel(executionId))

	f.engine.Run(context.Background(), executionId, "wf-1")

	require.Equal(t, len(f.events), len(workflowEvents))
	for i := range f.events {
		require.Equal(t, f.events[i].Type, workflowEvents[i].Type)
	}
}
