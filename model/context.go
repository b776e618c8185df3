package model

// NodeResult is the typed output of a completed node, inserted into the
// execution context and visible to every node that runs after it.
// Fields exposes the flat view used by template lookups.
type NodeResult interface {
	Fields() map[string]any
}

// ExecutionContext accumulates the trigger input and prior node outputs
// for a single run. It is owned by the one goroutine traversing the
// graph and is discarded when the run ends.
type ExecutionContext struct {
	triggerPayload map[string]any
	nodeResults    map[string]NodeResult
}

func NewExecutionContext(triggerPayload map[string]any) *ExecutionContext {
	if triggerPayload == nil {
		triggerPayload = map[string]any{}
	}
	return &ExecutionContext{
		triggerPayload: triggerPayload,
		nodeResults:    make(map[string]NodeResult),
	}
}

// TriggerBody is the $json.body view of the trigger payload.
func (c *ExecutionContext) TriggerBody() map[string]any {
	return c.triggerPayload
}

func (c *ExecutionContext) SetNodeResult(nodeId string, result NodeResult) {
	c.nodeResults[nodeId] = result
}

func (c *ExecutionContext) NodeResult(nodeId string) (NodeResult, bool) {
	r, ok := c.nodeResults[nodeId]
	return r, ok
}
