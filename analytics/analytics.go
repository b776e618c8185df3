package analytics

// ExecutionDataCollector records per-node outcomes of workflow runs for
// offline analysis, independent of the live event stream.
type ExecutionDataCollector interface {
	RecordNodeSuccess(workflowId string, executionId string, nodeId string, nodeType string)
	RecordNodeFailure(workflowId string, executionId string, nodeId string, nodeType string, reason string)
}

type noopCollector struct{}

func NewNoopCollector() ExecutionDataCollector {
	return noopCollector{}
}

func (noopCollector) RecordNodeSuccess(workflowId string, executionId string, nodeId string, nodeType string) {
}

func (noopCollector) RecordNodeFailure(workflowId string, executionId string, nodeId string, nodeType string, reason string) {
}
