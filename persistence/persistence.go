package persistence

import (
	"context"
	"fmt"

	"github.com/stitchwork/stitch/model"
)

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type NotFoundError struct {
	Kind string
	Id   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Id)
}

type WorkflowDao interface {
	Save(ctx context.Context, wf model.Workflow) error
	Get(ctx context.Context, id string) (*model.Workflow, error)
	GetByWebhookId(ctx context.Context, webhookId string) (*model.Workflow, error)
	Delete(ctx context.Context, id string) error
}

// ExecutionDao is the record store for runs. Update is a
// read-modify-write transaction: fn sees the current record and mutates
// it in place, and the write only lands if the record was untouched in
// between.
type ExecutionDao interface {
	Save(ctx context.Context, execution model.Execution) error
	Get(ctx context.Context, id string) (*model.Execution, error)
	Update(ctx context.Context, id string, fn func(*model.Execution) error) error
}

type CredentialsDao interface {
	Save(ctx context.Context, creds model.Credentials) error
	Get(ctx context.Context, id string) (*model.Credentials, error)
	Delete(ctx context.Context, id string) error
}

// ConversationMemory is the bounded per-workflow log of role/content
// turns consumed by AI nodes that opt into memory. Read returns up to
// MemoryLimit turns oldest-first; older turns beyond the cap are
// evicted on append.
type ConversationMemory interface {
	Append(ctx context.Context, workflowId string, role model.MemoryRole, content string) error
	Read(ctx context.Context, workflowId string) ([]model.MemoryTurn, error)
}

const MemoryLimit = 25

// ExecutionQueue is the durable work queue holding pending execution
// requests. A claimed but unacked entry stays claimable by the consumer
// group after the claiming worker dies; there is no automatic claim
// expiry.
type ExecutionQueue interface {
	Enqueue(ctx context.Context, req model.ExecutionRequest) error
	// EnsureGroup creates the consumer group, tolerating one that
	// already exists.
	EnsureGroup(ctx context.Context) error
	// Claim blocks up to the queue's block timeout for one entry.
	// Returns nil without error when nothing arrived in time.
	Claim(ctx context.Context, consumer string) (*model.QueuedExecution, error)
	Ack(ctx context.Context, messageId string) error
}
