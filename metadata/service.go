package metadata

import (
	"context"
	"time"

	c "github.com/patrickmn/go-cache"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
)

// Service serves workflow definitions to the engine. Definitions are
// immutable during a run, so a short TTL cache in front of the store is
// safe and saves one read per claimed job.
type Service interface {
	GetWorkflow(ctx context.Context, id string) (*model.Workflow, error)
	Invalidate(id string)
}

type metadataService struct {
	workflows persistence.WorkflowDao
	cache     *c.Cache
}

func NewService(workflows persistence.WorkflowDao, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &metadataService{
		workflows: workflows,
		cache:     c.New(ttl, 10*time.Minute),
	}
}

func (s *metadataService) GetWorkflow(ctx context.Context, id string) (*model.Workflow, error) {
	if cached, found := s.cache.Get(id); found {
		wf := cached.(model.Workflow)
		return &wf, nil
	}
	wf, err := s.workflows.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(id, *wf)
	return wf, nil
}

func (s *metadataService) Invalidate(id string) {
	s.cache.Delete(id)
}
