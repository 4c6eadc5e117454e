package metadata

import (
	"fmt"
	"time"

	"github.com/chainctl/actioneer/logger"
	"github.com/chainctl/actioneer/model"
	c "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const manifestCacheKey = "manifest"

// Service fronts manifest storage with validation on write and a short read
// cache.
type Service struct {
	storage Storage
	cache   *c.Cache
}

func NewService(storage Storage) *Service {
	return &Service{
		storage: storage,
		cache:   c.New(30*time.Second, 1*time.Minute),
	}
}

// SaveManifest validates and persists a new manifest, invalidating the read
// cache so the replacement is visible immediately.
func (s *Service) SaveManifest(manifest model.Manifest) error {
	if err := ValidateManifest(&manifest); err != nil {
		return err
	}
	if err := s.storage.SaveManifest(manifest); err != nil {
		return err
	}
	s.cache.Delete(manifestCacheKey)
	logger.Info("manifest saved", zap.String("version", manifest.Version), zap.Int("actions", len(manifest.Actions)))
	return nil
}

func (s *Service) GetManifest() (*model.Manifest, error) {
	if cached, found := s.cache.Get(manifestCacheKey); found {
		return cached.(*model.Manifest), nil
	}
	manifest, err := s.storage.GetManifest()
	if err != nil {
		return nil, err
	}
	s.cache.Set(manifestCacheKey, manifest, c.DefaultExpiration)
	return manifest, nil
}

// GetAction finds one action definition by id.
func (s *Service) GetAction(id string) (*model.Action, error) {
	manifest, err := s.GetManifest()
	if err != nil {
		return nil, err
	}
	for i := range manifest.Actions {
		if manifest.Actions[i].Id == id {
			return &manifest.Actions[i], nil
		}
	}
	return nil, fmt.Errorf("action %q not found", id)
}
