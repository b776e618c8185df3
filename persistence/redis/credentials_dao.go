package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/stitchwork/stitch/model"
	"github.com/stitchwork/stitch/persistence"
	"github.com/stitchwork/stitch/util"
)

const CREDENTIALS_KEY string = "CREDS"

var _ persistence.CredentialsDao = new(redisCredentialsDao)

type redisCredentialsDao struct {
	baseDao
	encoderDecoder util.EncoderDecoder[model.Credentials]
}

func NewRedisCredentialsDao(conf Config) *redisCredentialsDao {
	return &redisCredentialsDao{
		baseDao:        *newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.Credentials](),
	}
}

func (rcd *redisCredentialsDao) Save(ctx context.Context, creds model.Credentials) error {
	key := rcd.baseDao.getNamespaceKey(CREDENTIALS_KEY, creds.Id)
	data, err := rcd.encoderDecoder.Encode(creds)
	if err != nil {
		return err
	}
	if err := rcd.redisClient.Set(ctx, key, data, 0).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rcd *redisCredentialsDao) Get(ctx context.Context, id string) (*model.Credentials, error) {
	key := rcd.baseDao.getNamespaceKey(CREDENTIALS_KEY, id)
	val, err := rcd.redisClient.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, persistence.NotFoundError{Kind: "credentials", Id: id}
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rcd.encoderDecoder.Decode([]byte(val))
}

func (rcd *redisCredentialsDao) Delete(ctx context.Context, id string) error {
	key := rcd.baseDao.getNamespaceKey(CREDENTIALS_KEY, id)
	if err := rcd.redisClient.Del(ctx, key).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
