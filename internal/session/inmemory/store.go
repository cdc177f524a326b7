// Package inmemory provides a map-backed session store. Sessions are lost on
// restart; the import flow is short-lived enough that this is the default.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/statement-import/internal/session"
)

// Store is an in-memory implementation of session.Store, safe for concurrent
// use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session.ImportSession
}

// NewStore creates an empty in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session.ImportSession),
	}
}

// Save implements session.Store.
func (s *Store) Save(ctx context.Context, sess *session.ImportSession) error {
	if sess.SessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy so callers cannot mutate stored state afterwards. The
	// raw table is shared intentionally: it is immutable by contract.
	cp := *sess
	s.sessions[sess.SessionID] = &cp
	return nil
}

// Get implements session.Store.
func (s *Store) Get(ctx context.Context, sessionID string) (*session.ImportSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	cp := *sess
	return &cp, nil
}

// List implements session.Store.
func (s *Store) List(ctx context.Context) ([]*session.ImportSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*session.ImportSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		cp := *sess
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Delete implements session.Store.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}

// Ensure Store implements the interface.
var _ session.Store = (*Store)(nil)
