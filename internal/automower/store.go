package automower

import (
	"context"
	"sync"
	"time"

	appLog "mowercal/internal/log"
	"mowercal/internal/model"
)

// Lister is the read side of the mower API consumed by the Store.
type Lister interface {
	ListMowers(ctx context.Context) ([]model.Mower, error)
}

// Store holds the latest mower snapshot in memory. It is refreshed on a
// schedule by the daemon and force-refreshed after every submitted
// update. Reads never mutate the snapshot; replacement is wholesale.
type Store struct {
	src Lister

	mu        sync.RWMutex
	mowers    []model.Mower
	updatedAt time.Time
}

func NewStore(src Lister) *Store {
	return &Store{src: src}
}

// Refresh replaces the snapshot with a fresh read from the state source.
// On failure the previous snapshot is kept.
func (s *Store) Refresh(ctx context.Context) error {
	mowers, err := s.src.ListMowers(ctx)
	if err != nil {
		appLog.Error("snapshot refresh failed", err)
		return err
	}

	s.mu.Lock()
	s.mowers = mowers
	s.updatedAt = time.Now()
	s.mu.Unlock()

	return nil
}

// Mowers returns the current snapshot.
func (s *Store) Mowers() []model.Mower {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mowers
}

// Mower looks up a single mower by id.
func (s *Store) Mower(id string) (model.Mower, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.mowers {
		if m.ID == id {
			return m, true
		}
	}
	return model.Mower{}, false
}

// UpdatedAt reports when the snapshot was last replaced. Zero until the
// first successful refresh.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
