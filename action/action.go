package action

import (
	"context"
	"fmt"

	"github.com/stitchwork/stitch/model"
)

// Action executes one node type against an external service. The
// engine treats every action as opaque: config in, typed result or
// error out.
type Action interface {
	Type() model.NodeType
	Execute(ctx context.Context, node model.Node, execCtx *model.ExecutionContext, workflowId string) (model.NodeResult, error)
}

// NodeExecutionError wraps an action failure with the node type, so the
// persisted log line is self-describing without knowing action
// internals.
type NodeExecutionError struct {
	NodeType model.NodeType
	Err      error
}

func (e NodeExecutionError) Error() string {
	return fmt.Sprintf("error in %s node: %v", e.NodeType, e.Err)
}

func (e NodeExecutionError) Unwrap() error {
	return e.Err
}
