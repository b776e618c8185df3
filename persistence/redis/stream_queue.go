package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	rd "github.com/go-redis/redis/v9"
	"github.com/stitchwork/stitch/logger"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
	"go.uber.org/zap"
)

const EXECUTION_STREAM string = "workflow:execution"

// Entries beyond this are trimmed from the stream tail, approximately.
const streamMaxLen = 10000

var _ persistence.ExecutionQueue = new(redisStreamQueue)

// redisStreamQueue is the durable work queue backed by a redis stream
// and a consumer group. Each entry is delivered to exactly one consumer
// of the group at a time; a claimed entry stays in the claimant's
// pending set until acked.
type redisStreamQueue struct {
	baseDao
	group     string
	blockTime time.Duration
}

func NewRedisStreamQueue(conf Config) *redisStreamQueue {
	blockTime := time.Duration(conf.ClaimBlockSeconds) * time.Second
	if blockTime <= 0 {
		blockTime = time.Second
	}
	group := conf.ConsumerGroup
	if group == "" {
		group = "workflowGroup"
	}
	return &redisStreamQueue{
		baseDao:   *newBaseDao(conf),
		group:     group,
		blockTime: blockTime,
	}
}

func (rq *redisStreamQueue) streamKey() string {
	return rq.getNamespaceKey(EXECUTION_STREAM)
}

func (rq *redisStreamQueue) Enqueue(ctx context.Context, req model.ExecutionRequest) error {
	payload, err := json.Marshal(req.Payload)
	if err != nil {
		return err
	}
	err = rq.redisClient.XAdd(ctx, &rd.XAddArgs{
		Stream: rq.streamKey(),
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"executionId": req.ExecutionId,
			"workflowId":  req.WorkflowId,
			"payload":     string(payload),
			"timestamp":   req.Timestamp,
		},
	}).Err()
	if err != nil {
		logger.Error("error while adding to execution stream", zap.String("executionId", req.ExecutionId), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	logger.Info("execution enqueued", zap.String("executionId", req.ExecutionId), zap.String("workflowId", req.WorkflowId))
	return nil
}

func (rq *redisStreamQueue) EnsureGroup(ctx context.Context) error {
	err := rq.redisClient.XGroupCreateMkStream(ctx, rq.streamKey(), rq.group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rq *redisStreamQueue) Claim(ctx context.Context, consumer string) (*model.QueuedExecution, error) {
	streams, err := rq.redisClient.XReadGroup(ctx, &rd.XReadGroupArgs{
		Group:    rq.group,
		Consumer: consumer,
		Streams:  []string{rq.streamKey(), ">"},
		Count:    1,
		Block:    rq.blockTime,
	}).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, nil
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, nil
	}
	msg := streams[0].Messages[0]
	queued := &model.QueuedExecution{
		MessageId: msg.ID,
		ExecutionRequest: model.ExecutionRequest{
			ExecutionId: stringValue(msg.Values, "executionId"),
			WorkflowId:  stringValue(msg.Values, "workflowId"),
			Timestamp:   stringValue(msg.Values, "timestamp"),
		},
	}
	if raw := stringValue(msg.Values, "payload"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &queued.Payload); err != nil {
			logger.Warn("malformed payload on queued execution", zap.String("messageId", msg.ID), zap.Error(err))
		}
	}
	return queued, nil
}

func (rq *redisStreamQueue) Ack(ctx context.Context, messageId string) error {
	err := rq.redisClient.XAck(ctx, rq.streamKey(), rq.group, messageId).Err()
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func stringValue(values map[string]interface{}, key string) string {
	v, ok := values[key]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
