package inmem

import (
	"context"
	"sync"

	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
)

var _ persistence.WorkflowDao = new(InMemWorkflowDao)

type InMemWorkflowDao struct {
	mu        sync.RWMutex
	workflows map[string]model.Workflow
	webhooks  map[string]string
}

func NewInMemWorkflowDao() *InMemWorkflowDao {
	return &InMemWorkflowDao{
		workflows: make(map[string]model.Workflow),
		webhooks:  make(map[string]string),
	}
}

func (d *InMemWorkflowDao) Save(ctx context.Context, wf model.Workflow) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.workflows[wf.Id] = wf
	if wf.WebhookId != "" {
		d.webhooks[wf.WebhookId] = wf.Id
	}
	return nil
}

func (d *InMemWorkflowDao) Get(ctx context.Context, id string) (*model.Workflow, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	wf, ok := d.workflows[id]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "workflow", Id: id}
	}
	return &wf, nil
}

func (d *InMemWorkflowDao) GetByWebhookId(ctx context.Context, webhookId string) (*model.Workflow, error) {
	d.mu.RLock()
	workflowId, ok := d.webhooks[webhookId]
	d.mu.RUnlock()
	if !ok {
		return nil, persistence.NotFoundError{Kind: "webhook", Id: webhookId}
	}
	return d.Get(ctx, workflowId)
}

func (d *InMemWorkflowDao) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	wf, ok := d.workflows[id]
	if !ok {
		return persistence.NotFoundError{Kind: "workflow", Id: id}
	}
	delete(d.workflows, id)
	if wf.WebhookId != "" {
		delete(d.webhooks, wf.WebhookId)
	}
	return nil
}

var _ persistence.ExecutionDao = new(InMemExecutionDao)

type InMemExecutionDao struct {
	mu         sync.Mutex
	executions map[string]model.Execution
}

func NewInMemExecutionDao() *InMemExecutionDao {
	return &InMemExecutionDao{
		executions: make(map[string]model.Execution),
	}
}

func (d *InMemExecutionDao) Save(ctx context.Context, execution model.Execution) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.executions[execution.Id] = execution
	return nil
}

func (d *InMemExecutionDao) Get(ctx context.Context, id string) (*model.Execution, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	execution, ok := d.executions[id]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "execution", Id: id}
	}
	copied := execution
	copied.Logs = copyLogs(execution.Logs)
	return &copied, nil
}

// Update runs fn under the store lock, which makes it the in-process
// equivalent of the redis watch transaction.
func (d *InMemExecutionDao) Update(ctx context.Context, id string, fn func(*model.Execution) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	execution, ok := d.executions[id]
	if !ok {
		return persistence.NotFoundError{Kind: "execution", Id: id}
	}
	execution.Logs = copyLogs(execution.Logs)
	if err := fn(&execution); err != nil {
		return err
	}
	d.executions[id] = execution
	return nil
}

func copyLogs(logs map[string]string) map[string]string {
	copied := make(map[string]string, len(logs))
	for k, v := range logs {
		copied[k] = v
	}
	return copied
}

var _ persistence.CredentialsDao = new(InMemCredentialsDao)

type InMemCredentialsDao struct {
	mu    sync.RWMutex
	creds map[string]model.Credentials
}

func NewInMemCredentialsDao() *InMemCredentialsDao {
	return &InMemCredentialsDao{
		creds: make(map[string]model.Credentials),
	}
}

func (d *InMemCredentialsDao) Save(ctx context.Context, creds model.Credentials) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.creds[creds.Id] = creds
	return nil
}

func (d *InMemCredentialsDao) Get(ctx context.Context, id string) (*model.Credentials, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	creds, ok := d.creds[id]
	if !ok {
		return nil, persistence.NotFoundError{Kind: "credentials", Id: id}
	}
	return &creds, nil
}

func (d *InMemCredentialsDao) Delete(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.creds, id)
	return nil
}
