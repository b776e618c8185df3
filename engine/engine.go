package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/stitchwork/stitch/action"
	"github.com/stitchwork/stitch/analytics"
	"github.com/stitchwork/stitch/event"
	"github.com/stitchwork/stitch/logger"
	"github.com/stitchwork/stitch/metadata"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
	"go.uber.org/zap"
)

type Config struct {
	// NodeTimeout bounds a single action dispatch; RunTimeout bounds
	// the whole traversal. A deadline expiry surfaces as an ordinary
	// node failure, so a hung third-party call cannot pin a worker
	// forever.
	NodeTimeout time.Duration
	RunTimeout  time.Duration
}

const defaultNodeTimeout = 2 * time.Minute
const defaultRunTimeout = 15 * time.Minute

// ExecutionEngine runs one claimed execution to completion: loads the
// workflow graph, walks it in topological order, dispatches each node,
// persists progress after every step and publishes lifecycle events.
// There is one engine regardless of how jobs are sourced; the worker
// loop and any in-process caller share it.
type ExecutionEngine struct {
	metadata   metadata.Service
	executions persistence.ExecutionDao
	dispatcher action.Dispatcher
	bus        event.Bus
	collector  analytics.ExecutionDataCollector
	config     Config
}

func NewExecutionEngine(metadata metadata.Service, executions persistence.ExecutionDao, dispatcher action.Dispatcher, bus event.Bus, collector analytics.ExecutionDataCollector, config Config) *ExecutionEngine {
	if config.NodeTimeout <= 0 {
		config.NodeTimeout = defaultNodeTimeout
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = defaultRunTimeout
	}
	if collector == nil {
		collector = analytics.NewNoopCollector()
	}
	return &ExecutionEngine{
		metadata:   metadata,
		executions: executions,
		dispatcher: dispatcher,
		bus:        bus,
		collector:  collector,
		config:     config,
	}
}

// Run processes a single execution and never propagates an error: node
// failures land in the persisted record and the event stream, load
// failures are logged and abandoned. Callers treat the job as handled
// either way.
func (e *ExecutionEngine) Run(ctx context.Context, executionId string, workflowId string) {
	ctx, cancel := context.WithTimeout(ctx, e.config.RunTimeout)
	defer cancel()

	wf, err := e.metadata.GetWorkflow(ctx, workflowId)
	if err != nil {
		logger.Error("workflow not found", zap.String("workflowId", workflowId), zap.Error(err))
		return
	}
	execution, err := e.executions.Get(ctx, executionId)
	if err != nil {
		logger.Error("execution not found", zap.String("executionId", executionId), zap.Error(err))
		return
	}
	triggerPayload := execution.Output.TriggerPayload
	if triggerPayload == nil {
		triggerPayload = map[string]any{}
	}

	if err := e.executions.Update(ctx, executionId, func(ex *model.Execution) error {
		ex.Status = model.EXEC_STATUS_RUNNING
		return nil
	}); err != nil {
		logger.Error("error marking execution running", zap.String("executionId", executionId), zap.Error(err))
		return
	}
	e.publishBoth(ctx, model.Event{
		Type:        model.EVENT_EXECUTION_STARTED,
		ExecutionId: executionId,
		WorkflowId:  workflowId,
		TotalTasks:  model.Count(execution.TotalTask),
	})

	execCtx := model.NewExecutionContext(triggerPayload)

	// Kahn traversal. Seeding follows node declaration order so runs
	// are reproducible; nodes with no unmet dependency execute in
	// queue order, never concurrently.
	indegree := make(map[string]int, wf.Nodes.Len())
	for _, id := range wf.Nodes.Ids() {
		indegree[id] = 0
	}
	for _, targets := range wf.Connections {
		for _, t := range targets {
			if _, ok := indegree[t]; ok {
				indegree[t]++
			}
		}
	}
	var queue []string
	for _, id := range wf.Nodes.Ids() {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	tasksDone := 0
	executionFailed := false

	for len(queue) > 0 {
		nodeId := queue[0]
		queue = queue[1:]
		node, _ := wf.Nodes.Get(nodeId)

		e.publishBoth(ctx, model.Event{
			Type:        model.EVENT_NODE_STARTED,
			ExecutionId: executionId,
			WorkflowId:  workflowId,
			NodeId:      nodeId,
			NodeType:    node.Type,
		})
		logger.Info("executing node", zap.String("executionId", executionId), zap.String("nodeId", nodeId), zap.String("nodeType", string(node.Type)))

		result, err := e.dispatchNode(ctx, node, execCtx, workflowId)
		if err != nil {
			errorMessage := err.Error()
			if updateErr := e.executions.Update(ctx, executionId, func(ex *model.Execution) error {
				ex.Status = model.EXEC_STATUS_FAILED
				setLog(ex, nodeId, "Error: "+errorMessage)
				return nil
			}); updateErr != nil {
				logger.Error("error persisting node failure", zap.String("executionId", executionId), zap.Error(updateErr))
			}
			e.collector.RecordNodeFailure(workflowId, executionId, nodeId, string(node.Type), errorMessage)
			e.publishBoth(ctx, model.Event{
				Type:        model.EVENT_NODE_FAILED,
				ExecutionId: executionId,
				WorkflowId:  workflowId,
				NodeId:      nodeId,
				NodeType:    node.Type,
				Error:       errorMessage,
			})
			executionFailed = true
			break
		}

		execCtx.SetNodeResult(nodeId, result)
		tasksDone++
		if err := e.executions.Update(ctx, executionId, func(ex *model.Execution) error {
			ex.TaskDone = tasksDone
			setLog(ex, nodeId, "Success")
			return nil
		}); err != nil {
			logger.Error("error persisting node success", zap.String("executionId", executionId), zap.Error(err))
		}
		e.collector.RecordNodeSuccess(workflowId, executionId, nodeId, string(node.Type))
		e.publishBoth(ctx, model.Event{
			Type:        model.EVENT_NODE_SUCCEEDED,
			ExecutionId: executionId,
			WorkflowId:  workflowId,
			NodeId:      nodeId,
			NodeType:    node.Type,
			Result:      result,
		})

		for _, next := range wf.Connections[nodeId] {
			if _, ok := indegree[next]; !ok {
				continue
			}
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if executionFailed {
		// the record was already marked FAILED with the node log line
		e.publishBoth(ctx, model.Event{
			Type:        model.EVENT_EXECUTION_FINISHED,
			ExecutionId: executionId,
			WorkflowId:  workflowId,
			Status:      model.EXEC_STATUS_FAILED,
			TasksDone:   model.Count(tasksDone),
		})
	} else {
		if err := e.executions.Update(ctx, executionId, func(ex *model.Execution) error {
			ex.Status = model.EXEC_STATUS_SUCCESS
			ex.TaskDone = tasksDone
			return nil
		}); err != nil {
			logger.Error("error persisting execution success", zap.String("executionId", executionId), zap.Error(err))
		}
		e.publishBoth(ctx, model.Event{
			Type:        model.EVENT_EXECUTION_FINISHED,
			ExecutionId: executionId,
			WorkflowId:  workflowId,
			Status:      model.EXEC_STATUS_SUCCESS,
			TasksDone:   model.Count(tasksDone),
		})
	}
	logger.Info("execution finished", zap.String("executionId", executionId), zap.Bool("failed", executionFailed), zap.Int("tasksDone", tasksDone))
}

func (e *ExecutionEngine) dispatchNode(ctx context.Context, node model.Node, execCtx *model.ExecutionContext, workflowId string) (model.NodeResult, error) {
	nodeCtx, cancel := context.WithTimeout(ctx, e.config.NodeTimeout)
	defer cancel()
	result, err := e.dispatcher.Dispatch(nodeCtx, node, execCtx, workflowId)
	if err != nil && nodeCtx.Err() != nil {
		return nil, fmt.Errorf("node %s timed out after %s", node.Id, e.config.NodeTimeout)
	}
	return result, err
}

// setLog writes a node's log line at most once per run.
func setLog(ex *model.Execution, nodeId string, line string) {
	if ex.Logs == nil {
		ex.Logs = make(map[string]string)
	}
	if _, ok := ex.Logs[nodeId]; ok {
		return
	}
	ex.Logs[nodeId] = line
}

// publishBoth emits the same event for the two subscriber audiences:
// execution-detail viewers and workflow-dashboard viewers. Publish
// failures are best-effort by contract.
func (e *ExecutionEngine) publishBoth(ctx context.Context, ev model.Event) {
	if err := e.bus.Publish(ctx, event.ExecutionChannel(ev.ExecutionId), ev); err != nil {
		logger.Warn("error publishing execution event", zap.String("executionId", ev.ExecutionId), zap.Error(err))
	}
	if err := e.bus.Publish(ctx, event.WorkflowChannel(ev.WorkflowId), ev); err != nil {
		logger.Warn("error publishing workflow event", zap.String("workflowId", ev.WorkflowId), zap.Error(err))
	}
}
