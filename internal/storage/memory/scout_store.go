// Package memory provides in-memory store implementations for
// development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/landingscout/landingscout/internal/scout"
)

// ScoutStore keeps scout definitions in a map.
type ScoutStore struct {
	mu     sync.RWMutex
	scouts map[string]scout.Scout
}

// NewScoutStore constructs a ScoutStore.
func NewScoutStore() *ScoutStore {
	return &ScoutStore{scouts: make(map[string]scout.Scout)}
}

// CreateScout stores a new scout definition.
func (s *ScoutStore) CreateScout(_ context.Context, sc scout.Scout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.scouts[sc.ID]; exists {
		return errors.New("scout already exists")
	}
	s.scouts[sc.ID] = sc
	return nil
}

// GetScout fetches a scout by ID.
func (s *ScoutStore) GetScout(_ context.Context, id string) (scout.Scout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scouts[id]
	if !ok {
		return scout.Scout{}, scout.ErrNotFound
	}
	return sc, nil
}

// UpdateScout replaces an existing scout definition.
func (s *ScoutStore) UpdateScout(_ context.Context, sc scout.Scout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scouts[sc.ID]; !ok {
		return scout.ErrNotFound
	}
	s.scouts[sc.ID] = sc
	return nil
}

// DeleteScout removes a scout definition.
func (s *ScoutStore) DeleteScout(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.scouts[id]; !ok {
		return scout.ErrNotFound
	}
	delete(s.scouts, id)
	return nil
}

// ListScouts returns all scouts ordered by creation time, newest first.
func (s *ScoutStore) ListScouts(_ context.Context) ([]scout.Scout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scout.Scout, 0, len(s.scouts))
	for _, sc := range s.scouts {
		out = append(out, sc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListActiveScouts returns scouts eligible for scheduling.
func (s *ScoutStore) ListActiveScouts(_ context.Context) ([]scout.Scout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scout.Scout, 0, len(s.scouts))
	for _, sc := range s.scouts {
		if sc.Active {
			out = append(out, sc)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateRunTimes stamps the last and next run times on a scout.
func (s *ScoutStore) UpdateRunTimes(_ context.Context, id string, lastRun, nextRun time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scouts[id]
	if !ok {
		return scout.ErrNotFound
	}
	last, next := lastRun, nextRun
	sc.LastRunAt = &last
	sc.NextRunAt = &next
	s.scouts[id] = sc
	return nil
}
