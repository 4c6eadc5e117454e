package metadata

import (
	"fmt"
	"sync"

	"github.com/chainctl/actioneer/model"
)

// Storage persists the manifest document. The manifest is replaced wholesale
// on save, never patched in place.
type Storage interface {
	SaveManifest(manifest model.Manifest) error
	GetManifest() (*model.Manifest, error)
}

type inMemStorage struct {
	mu       sync.Mutex
	manifest *model.Manifest
}

func NewInMemStorage() Storage {
	return &inMemStorage{}
}

func (s *inMemStorage) SaveManifest(manifest model.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest = &manifest
	return nil
}

func (s *inMemStorage) GetManifest() (*model.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manifest == nil {
		return nil, fmt.Errorf("no manifest loaded")
	}
	return s.manifest, nil
}
