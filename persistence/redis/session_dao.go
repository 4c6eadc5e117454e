package redis

import (
	"context"

	"github.com/chainctl/actioneer/persistence"
	rd "github.com/go-redis/redis/v9"
)

const SESSION_KEY string = "SESSION"

// redisSessionBackend is the opaque get/set store the session persists in
// across reloads.
type redisSessionBackend struct {
	*baseDao
}

func NewRedisSessionBackend(conf Config) *redisSessionBackend {
	return &redisSessionBackend{baseDao: newBaseDao(conf)}
}

func (rsb *redisSessionBackend) Get(key string) ([]byte, bool, error) {
	nsKey := rsb.baseDao.getNamespaceKey(SESSION_KEY, key)
	ctx := context.Background()
	val, err := rsb.redisClient.Get(ctx, nsKey).Result()
	if err == rd.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, persistence.StorageLayerError{Message: err.Error()}
	}
	return []byte(val), true, nil
}

func (rsb *redisSessionBackend) Set(key string, value []byte) error {
	nsKey := rsb.baseDao.getNamespaceKey(SESSION_KEY, key)
	ctx := context.Background()
	if err := rsb.redisClient.Set(ctx, nsKey, value, 0).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rsb *redisSessionBackend) Delete(key string) error {
	nsKey := rsb.baseDao.getNamespaceKey(SESSION_KEY, key)
	ctx := context.Background()
	if err := rsb.redisClient.Del(ctx, nsKey).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
