package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stitchwork/stitch/logger"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
	"go.uber.org/zap"
)

// WorkflowExecutionService is the trigger surface exposed to the http
// layer: it creates the execution record and pushes the request onto
// the work queue. Everything after that belongs to the worker.
type WorkflowExecutionService struct {
	workflows  persistence.WorkflowDao
	executions persistence.ExecutionDao
	queue      persistence.ExecutionQueue
}

func NewWorkflowExecutionService(workflows persistence.WorkflowDao, executions persistence.ExecutionDao, queue persistence.ExecutionQueue) *WorkflowExecutionService {
	return &WorkflowExecutionService{
		workflows:  workflows,
		executions: executions,
		queue:      queue,
	}
}

// TriggerManual starts a run of a Manual workflow.
func (s *WorkflowExecutionService) TriggerManual(ctx context.Context, workflowId string, payload map[string]any) (string, error) {
	wf, err := s.workflows.Get(ctx, workflowId)
	if err != nil {
		return "", err
	}
	if wf.TriggerType != model.TRIGGER_TYPE_MANUAL {
		return "", fmt.Errorf("workflow %s is not manually triggered", workflowId)
	}
	return s.trigger(ctx, wf, payload)
}

// TriggerWebhook starts a run of the enabled workflow bound to the
// webhook id.
func (s *WorkflowExecutionService) TriggerWebhook(ctx context.Context, webhookId string, payload map[string]any) (string, error) {
	wf, err := s.workflows.GetByWebhookId(ctx, webhookId)
	if err != nil {
		return "", err
	}
	if !wf.Enabled {
		return "", fmt.Errorf("workflow %s is disabled", wf.Id)
	}
	return s.trigger(ctx, wf, payload)
}

func (s *WorkflowExecutionService) trigger(ctx context.Context, wf *model.Workflow, payload map[string]any) (string, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	execution := model.Execution{
		Id:         uuid.New().String(),
		WorkflowId: wf.Id,
		Status:     model.EXEC_STATUS_PENDING,
		TotalTask:  wf.Nodes.Len(),
		Logs:       map[string]string{},
		Output:     model.ExecutionOutput{TriggerPayload: payload},
	}
	if err := s.executions.Save(ctx, execution); err != nil {
		return "", err
	}
	req := model.ExecutionRequest{
		ExecutionId: execution.Id,
		WorkflowId:  wf.Id,
		Payload:     payload,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.queue.Enqueue(ctx, req); err != nil {
		return "", err
	}
	logger.Info("workflow triggered", zap.String("workflowId", wf.Id), zap.String("executionId", execution.Id), zap.String("triggerType", string(wf.TriggerType)))
	return execution.Id, nil
}
