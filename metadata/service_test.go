package metadata

import (
	"context"
	"testing"
	"time"

	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence/inmem"
	"github.com/stretchr/testify/require"
)

func TestMetadataService(t *testing.T) {
	workflows := inmem.NewInMemWorkflowDao()
	svc := NewService(workflows, time.Minute)
	ctx := context.Background()

	wf := model.Workflow{
		Id:          "w1",
		Title:       "v1",
		Nodes:       model.NewNodeSet(model.Node{Id: "a", Type: model.NODE_TYPE_GEMINI, CredentialsId: "c1"}),
		TriggerType: model.TRIGGER_TYPE_MANUAL,
	}
	require.NoError(t, workflows.Save(ctx, wf))

	loaded, err := svc.GetWorkflow(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, "v1", loaded.Title)

	// a stale cache serves the old definition until invalidated
	wf.Title = "v2"
	require.NoError(t, workflows.Save(ctx, wf))
	cached, err := svc.GetWorkflow(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, "v1", cached.Title)

	svc.Invalidate("w1")
	fresh, err := svc.GetWorkflow(ctx, "w1")
	require.NoError(t, err)
	require.Equal(t, "v2", fresh.Title)

	_, err = svc.GetWorkflow(ctx, "missing")
	require.Error(t, err)
}
