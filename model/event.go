package model

type EventType string

const EVENT_EXECUTION_STARTED EventType = "execution_started"
const EVENT_NODE_STARTED EventType = "node_started"
const EVENT_NODE_SUCCEEDED EventType = "node_succeeded"
const EVENT_NODE_FAILED EventType = "node_failed"
const EVENT_EXECUTION_FINISHED EventType = "execution_finished"

// Event is the lifecycle record published on both execution:<id> and
// workflow:<id> channels. Timestamp is stamped by the bus at publish,
// epoch millis.
type Event struct {
	Type        EventType  `json:"type"`
	ExecutionId string     `json:"executionId"`
	WorkflowId  string     `json:"workflowId"`
	NodeId      string     `json:"nodeId,omitempty"`
	NodeType    NodeType   `json:"nodeType,omitempty"`
	Result      any        `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	Status      ExecStatus `json:"status,omitempty"`
	TotalTasks  *int       `json:"totalTasks,omitempty"`
	TasksDone   *int       `json:"tasksDone,omitempty"`
	Timestamp   int64      `json:"timestamp"`
}

// Count wraps a task counter for the optional event fields, keeping an
// explicit zero distinct from an absent value.
func Count(n int) *int {
	return &n
}
