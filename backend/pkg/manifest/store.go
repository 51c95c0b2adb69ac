package manifest

import (
	"errors"
	"sync"

	t "github.com/rius2g/musicchain/backend/pkg/types"
)

var ErrNotFound = errors.New("manifest not found")

// InMemoryStore keeps submitted manifests in arrival order.
type InMemoryStore struct {
	mu        sync.Mutex
	manifests []t.Manifest
}

func NewStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Add stores m, replacing an earlier manifest with the same run id.
func (s *InMemoryStore) Add(m t.Manifest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.manifests {
		if s.manifests[i].RunID == m.RunID {
			s.manifests[i] = m
			return
		}
	}
	s.manifests = append(s.manifests, m)
}

func (s *InMemoryStore) All() []t.Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]t.Manifest{}, s.manifests...)
}

func (s *InMemoryStore) ByRunID(runID string) (t.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.manifests {
		if m.RunID == runID {
			return m, nil
		}
	}
	return t.Manifest{}, ErrNotFound
}
