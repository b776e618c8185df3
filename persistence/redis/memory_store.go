package redis

import (
	"context"
	"time"

	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
	"github.com/stitchwork/stitch/util"
)

var _ persistence.ConversationMemory = new(redisConversationMemory)

// redisConversationMemory keeps the last N conversation turns per
// workflow in a redis list, newest at the head. Memory is scoped to the
// workflow, not the execution, so AI nodes see prior runs.
type redisConversationMemory struct {
	baseDao
	encoderDecoder util.EncoderDecoder[model.MemoryTurn]
}

func NewRedisConversationMemory(conf Config) *redisConversationMemory {
	return &redisConversationMemory{
		baseDao:        *newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.MemoryTurn](),
	}
}

func (rcm *redisConversationMemory) memoryKey(workflowId string) string {
	return rcm.getNamespaceKey("workflow", workflowId, "memory")
}

func (rcm *redisConversationMemory) Append(ctx context.Context, workflowId string, role model.MemoryRole, content string) error {
	turn := model.MemoryTurn{
		Role:    role,
		Content: content,
		Ts:      time.Now().UnixMilli(),
	}
	data, err := rcm.encoderDecoder.Encode(turn)
	if err != nil {
		return err
	}
	key := rcm.memoryKey(workflowId)
	if err := rcm.redisClient.LPush(ctx, key, data).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	// newest 25 live at the head; everything older falls off
	if err := rcm.redisClient.LTrim(ctx, key, 0, persistence.MemoryLimit-1).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rcm *redisConversationMemory) Read(ctx context.Context, workflowId string) ([]model.MemoryTurn, error) {
	key := rcm.memoryKey(workflowId)
	values, err := rcm.redisClient.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	turns := make([]model.MemoryTurn, 0, len(values))
	// list is newest-first, callers want oldest-first
	for i := len(values) - 1; i >= 0; i-- {
		turn, err := rcm.encoderDecoder.Decode([]byte(values[i]))
		if err != nil {
			return nil, err
		}
		turns = append(turns, *turn)
	}
	return turns, nil
}
