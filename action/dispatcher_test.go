package action

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stitchwork/stitch/model"
	"github.com/stretchr/testify/require"
)

type fakeAction struct {
	nodeType model.NodeType
	err      error
}

func (a fakeAction) Type() model.NodeType {
	return a.nodeType
}

func (a fakeAction) Execute(ctx context.Context, node model.Node, execCtx *model.ExecutionContext, workflowId string) (model.NodeResult, error) {
	if a.err != nil {
		return nil, a.err
	}
	return fakeResult{}, nil
}

type fakeResult struct{}

func (fakeResult) Fields() map[string]any {
	return map[string]any{"ok": true}
}

func TestDispatcher(t *testing.T) {
	execCtx := model.NewExecutionContext(nil)

	for scenario, fn := range map[string]func(t *testing.T){
		"test dispatch to registered action": func(t *testing.T) {
			d := NewDispatcher(fakeAction{nodeType: model.NODE_TYPE_TELEGRAM})
			node := model.Node{Id: "n1", Type: model.NODE_TYPE_TELEGRAM, CredentialsId: "c1"}
			result, err := d.Dispatch(context.Background(), node, execCtx, "wf-1")
			require.NoError(t, err)
			require.Equal(t, true, result.Fields()["ok"])
		},
		"test node without type": func(t *testing.T) {
			d := NewDispatcher()
			node := model.Node{Id: "n1", CredentialsId: "c1"}
			_, err := d.Dispatch(context.Background(), node, execCtx, "wf-1")
			require.EqualError(t, err, "node n1 has no type")
		},
		"test node without credentials": func(t *testing.T) {
			d := NewDispatcher(fakeAction{nodeType: model.NODE_TYPE_TELEGRAM})
			node := model.Node{Id: "n1", Type: model.NODE_TYPE_TELEGRAM}
			_, err := d.Dispatch(context.Background(), node, execCtx, "wf-1")
			require.EqualError(t, err, "node n1 has no credentials")
		},
		"test unknown node type": func(t *testing.T) {
			d := NewDispatcher(fakeAction{nodeType: model.NODE_TYPE_TELEGRAM})
			node := model.Node{Id: "n1", Type: "Slack", CredentialsId: "c1"}
			_, err := d.Dispatch(context.Background(), node, execCtx, "wf-1")
			require.EqualError(t, err, "unknown node type: Slack")
		},
		"test action error is wrapped": func(t *testing.T) {
			cause := fmt.Errorf("upstream said no")
			d := NewDispatcher(fakeAction{nodeType: model.NODE_TYPE_GEMINI, err: cause})
			node := model.Node{Id: "n1", Type: model.NODE_TYPE_GEMINI, CredentialsId: "c1"}
			_, err := d.Dispatch(context.Background(), node, execCtx, "wf-1")
			require.EqualError(t, err, "error in Gemini node: upstream said no")
			var wrapped NodeExecutionError
			require.True(t, errors.As(err, &wrapped))
			require.Equal(t, model.NODE_TYPE_GEMINI, wrapped.NodeType)
			require.True(t, errors.Is(err, cause))
		},
	} {
		t.Run(scenario, fn)
	}
}
