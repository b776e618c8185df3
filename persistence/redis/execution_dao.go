package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
	"github.com/stitchwork/stitch/util"
)

const EXECUTION_KEY string = "EXECUTION"

// watch retries before giving up on a contended record. A single
// execution only ever has one writer, so contention here means a
// duplicate processor is racing us.
const maxUpdateRetries = 5

var _ persistence.ExecutionDao = new(redisExecutionDao)

type redisExecutionDao struct {
	baseDao
	encoderDecoder util.EncoderDecoder[model.Execution]
}

func NewRedisExecutionDao(conf Config) *redisExecutionDao {
	return &redisExecutionDao{
		baseDao:        *newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.Execution](),
	}
}

func (red *redisExecutionDao) Save(ctx context.Context, execution model.Execution) error {
	key := red.baseDao.getNamespaceKey(EXECUTION_KEY, execution.Id)
	data, err := red.encoderDecoder.Encode(execution)
	if err != nil {
		return err
	}
	if err := red.redisClient.Set(ctx, key, data, 0).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (red *redisExecutionDao) Get(ctx context.Context, id string) (*model.Execution, error) {
	key := red.baseDao.getNamespaceKey(EXECUTION_KEY, id)
	val, err := red.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: "execution", Id: id}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return red.encoderDecoder.Decode([]byte(val))
}

func (red *redisExecutionDao) Update(ctx context.Context, id string, fn func(*model.Execution) error) error {
	key := red.baseDao.getNamespaceKey(EXECUTION_KEY, id)
	txf := func(tx *rd.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, rd.Nil) {
				return persistence.NotFoundError{Kind: "execution", Id: id}
			}
			return err
		}
		execution, err := red.encoderDecoder.Decode([]byte(val))
		if err != nil {
			return err
		}
		if err := fn(execution); err != nil {
			return err
		}
		data, err := red.encoderDecoder.Encode(*execution)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}
	for i := 0; i < maxUpdateRetries; i++ {
		err := red.redisClient.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, rd.TxFailedErr) {
			continue
		}
		var notFound persistence.NotFoundError
		if errors.As(err, &notFound) {
			return err
		}
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return persistence.StorageLayerError{Message: "execution update contention on " + id}
}
