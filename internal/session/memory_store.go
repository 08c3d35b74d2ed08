package session

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore is the in-process fallback used when no Redis address is
// configured, and by tests.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[string]*Session)}
}

func (s *memoryStore) Get(_ context.Context, requester string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[requester]
	if !ok {
		return nil, nil
	}
	cp := *sess
	if sess.Pending != nil {
		p := *sess.Pending
		cp.Pending = &p
	}
	return &cp, nil
}

func (s *memoryStore) Set(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	if sess.Pending != nil {
		p := *sess.Pending
		cp.Pending = &p
	}
	s.sessions[sess.Requester] = &cp
	return nil
}

func (s *memoryStore) Clear(_ context.Context, requester string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, requester)
	return nil
}
