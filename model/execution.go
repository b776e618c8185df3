package model

type ExecStatus string

const EXEC_STATUS_PENDING ExecStatus = "PENDING"
const EXEC_STATUS_RUNNING ExecStatus = "RUNNING"
const EXEC_STATUS_SUCCESS ExecStatus = "SUCCESS"
const EXEC_STATUS_FAILED ExecStatus = "FAILED"

type ExecutionOutput struct {
	TriggerPayload map[string]any `json:"triggerPayload"`
}

// Execution is one triggered run instance of a workflow. It is created
// by the trigger surface and from then on mutated exclusively by the
// engine processing it. Logs holds at most one line per node, either
// "Success" or "Error: <message>".
type Execution struct {
	Id         string            `json:"id"`
	WorkflowId string            `json:"workflowId"`
	Status     ExecStatus        `json:"status"`
	TotalTask  int               `json:"totalTask"`
	TaskDone   int               `json:"taskDone"`
	Logs       map[string]string `json:"logs"`
	Output     ExecutionOutput   `json:"output"`
}

// ExecutionRequest is the work queue entry pushed once per trigger.
type ExecutionRequest struct {
	ExecutionId string         `json:"executionId"`
	WorkflowId  string         `json:"workflowId"`
	Payload     map[string]any `json:"payload,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

// QueuedExecution is a claimed queue entry; MessageId is what the
// worker acks after the attempt.
type QueuedExecution struct {
	MessageId string
	ExecutionRequest
}
