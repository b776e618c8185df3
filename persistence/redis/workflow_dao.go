package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
	"github.com/stitchwork/stitch/util"
)

const WORKFLOW_DEF string = "WF_DEF"
const WEBHOOK_IDX string = "WEBHOOK"

var _ persistence.WorkflowDao = new(redisWorkflowDao)

type redisWorkflowDao struct {
	baseDao
	encoderDecoder util.EncoderDecoder[model.Workflow]
}

func NewRedisWorkflowDao(conf Config) *redisWorkflowDao {
	return &redisWorkflowDao{
		baseDao:        *newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.Workflow](),
	}
}

func (rwd *redisWorkflowDao) Save(ctx context.Context, wf model.Workflow) error {
	key := rwd.baseDao.getNamespaceKey(WORKFLOW_DEF, wf.Id)
	data, err := rwd.encoderDecoder.Encode(wf)
	if err != nil {
		return err
	}
	_, err = rwd.redisClient.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		if wf.WebhookId != "" {
			pipe.Set(ctx, rwd.baseDao.getNamespaceKey(WEBHOOK_IDX, wf.WebhookId), wf.Id, 0)
		}
		return nil
	})
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rwd *redisWorkflowDao) Get(ctx context.Context, id string) (*model.Workflow, error) {
	key := rwd.baseDao.getNamespaceKey(WORKFLOW_DEF, id)
	val, err := rwd.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: "workflow", Id: id}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rwd.encoderDecoder.Decode([]byte(val))
}

func (rwd *redisWorkflowDao) GetByWebhookId(ctx context.Context, webhookId string) (*model.Workflow, error) {
	key := rwd.baseDao.getNamespaceKey(WEBHOOK_IDX, webhookId)
	workflowId, err := rwd.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: "webhook", Id: webhookId}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rwd.Get(ctx, workflowId)
}

func (rwd *redisWorkflowDao) Delete(ctx context.Context, id string) error {
	wf, err := rwd.Get(ctx, id)
	if err != nil {
		return err
	}
	keys := []string{rwd.baseDao.getNamespaceKey(WORKFLOW_DEF, id)}
	if wf.WebhookId != "" {
		keys = append(keys, rwd.baseDao.getNamespaceKey(WEBHOOK_IDX, wf.WebhookId))
	}
	if err := rwd.redisClient.Del(ctx, keys...).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
