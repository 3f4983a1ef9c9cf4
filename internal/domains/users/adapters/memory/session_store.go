package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/auto-loan-origination/internal/domains/users/domain"
	"github.com/Apurer/auto-loan-origination/internal/domains/users/ports"
)

// SessionStore is an in-memory SessionStore implementation.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]domain.Session{}}
}

func (s *SessionStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.TokenID] = session
	return nil
}

func (s *SessionStore) Active(_ context.Context, tokenID string, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[tokenID]
	return ok && !session.Expired(now), nil
}

func (s *SessionStore) Revoke(_ context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenID)
	return nil
}

func (s *SessionStore) RevokeUser(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
		}
	}
	return nil
}

func (s *SessionStore) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var purged int64
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged, nil
}

var _ ports.SessionStore = (*SessionStore)(nil)
