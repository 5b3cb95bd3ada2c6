package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/landingscout/landingscout/internal/scout"
)

// SessionStore keeps sessions and page results in maps.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]scout.Session
	results  map[string][]scout.PageResult
	byID     map[string]scout.PageResult
}

// NewSessionStore constructs a SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]scout.Session),
		results:  make(map[string][]scout.PageResult),
		byID:     make(map[string]scout.PageResult),
	}
}

// CreateSession stores a new session.
func (s *SessionStore) CreateSession(_ context.Context, session scout.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return errors.New("session already exists")
	}
	s.sessions[session.ID] = session
	return nil
}

// GetSession fetches a session by ID.
func (s *SessionStore) GetSession(_ context.Context, id string) (scout.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return scout.Session{}, scout.ErrNotFound
	}
	return session, nil
}

// UpdateSession replaces an existing session. Terminal sessions are
// immutable.
func (s *SessionStore) UpdateSession(_ context.Context, session scout.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[session.ID]
	if !ok {
		return scout.ErrNotFound
	}
	if current.Status.IsTerminal() {
		return errors.New("session is terminal")
	}
	s.sessions[session.ID] = session
	return nil
}

// ListSessions returns all sessions, newest first.
func (s *SessionStore) ListSessions(_ context.Context) ([]scout.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scout.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	sortSessions(out)
	return out, nil
}

// ListSessionsByScout returns one scout's sessions, newest first.
func (s *SessionStore) ListSessionsByScout(_ context.Context, scoutID string) ([]scout.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scout.Session, 0)
	for _, session := range s.sessions {
		if session.ScoutID == scoutID {
			out = append(out, session)
		}
	}
	sortSessions(out)
	return out, nil
}

// RecordPageResult appends a page result for a session.
func (s *SessionStore) RecordPageResult(_ context.Context, r scout.PageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.SessionID] = append(s.results[r.SessionID], r)
	s.byID[r.ID] = r
	return nil
}

// ListPageResults returns all recorded results for a session in scan order.
func (s *SessionStore) ListPageResults(_ context.Context, sessionID string) ([]scout.PageResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := s.results[sessionID]
	out := make([]scout.PageResult, len(results))
	copy(out, results)
	return out, nil
}

// GetPageResult fetches a single page result by ID.
func (s *SessionStore) GetPageResult(_ context.Context, id string) (scout.PageResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return scout.PageResult{}, scout.ErrNotFound
	}
	return r, nil
}

func sortSessions(sessions []scout.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
}
