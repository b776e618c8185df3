package action

import (
	"context"
	"fmt"

	"github.com/stitchwork/stitch/logger"
	"github.com/stitchwork/stitch/model"
	"go.uber.org/zap"
)

// Dispatcher routes a node to the action registered for its type.
type Dispatcher interface {
	Dispatch(ctx context.Context, node model.Node, execCtx *model.ExecutionContext, workflowId string) (model.NodeResult, error)
}

var _ Dispatcher = new(nodeDispatcher)

// nodeDispatcher holds the closed set of known actions. Registration
// happens once at composition time; there is no dynamic plugin path.
type nodeDispatcher struct {
	actions map[model.NodeType]Action
}

func NewDispatcher(actions ...Action) *nodeDispatcher {
	registry := make(map[model.NodeType]Action, len(actions))
	for _, a := range actions {
		registry[a.Type()] = a
	}
	return &nodeDispatcher{actions: registry}
}

func (d *nodeDispatcher) Dispatch(ctx context.Context, node model.Node, execCtx *model.ExecutionContext, workflowId string) (model.NodeResult, error) {
	if node.Type == "" {
		return nil, fmt.Errorf("node %s has no type", node.Id)
	}
	if node.CredentialsId == "" {
		return nil, fmt.Errorf("node %s has no credentials", node.Id)
	}
	act, ok := d.actions[node.Type]
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", node.Type)
	}
	result, err := act.Execute(ctx, node, execCtx, workflowId)
	if err != nil {
		logger.Error("node action failed", zap.String("nodeId", node.Id), zap.String("nodeType", string(node.Type)), zap.Error(err))
		return nil, NodeExecutionError{NodeType: node.Type, Err: err}
	}
	return result, nil
}
