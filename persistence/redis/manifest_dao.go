package redis

import (
	"context"

	"github.com/chainctl/actioneer/logger"
	"github.com/chainctl/actioneer/model"
	"github.com/chainctl/actioneer/persistence"
	"github.com/chainctl/actioneer/util"
	"go.uber.org/zap"
)

const MANIFEST_DEF string = "MANIFEST"

type redisManifestStorage struct {
	*baseDao
	manifestEncoderDecoder util.EncoderDecoder[model.Manifest]
}

func NewRedisManifestStorage(conf Config) *redisManifestStorage {
	return &redisManifestStorage{
		baseDao:                newBaseDao(conf),
		manifestEncoderDecoder: util.NewJsonEncoderDecoder[model.Manifest](),
	}
}

func (rms *redisManifestStorage) SaveManifest(manifest model.Manifest) error {
	key := rms.baseDao.getNamespaceKey(MANIFEST_DEF)
	ctx := context.Background()
	data, err := rms.manifestEncoderDecoder.Encode(manifest)
	if err != nil {
		return err
	}
	if err := rms.redisClient.Set(ctx, key, data, 0).Err(); err != nil {
		logger.Error("error in saving manifest", zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rms *redisManifestStorage) GetManifest() (*model.Manifest, error) {
	key := rms.baseDao.getNamespaceKey(MANIFEST_DEF)
	ctx := context.Background()
	val, err := rms.redisClient.Get(ctx, key).Result()
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return rms.manifestEncoderDecoder.Decode([]byte(val))
}
