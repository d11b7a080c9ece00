package service

import (
	"context"
	"sync"
	"time"

	"github.com/mparaz/cloudflare-ranking/internal/model"
)

// SessionStore persists CAPTCHA sessions. Find returns ErrSessionNotFound when
// no record exists for the id.
type SessionStore interface {
	Create(ctx context.Context, s *model.CaptchaSession) error
	Find(ctx context.Context, id string) (*model.CaptchaSession, error)
	Delete(ctx context.Context, id string) error
}

// MemorySessionStore is a process-local SessionStore for tests and single-node
// development.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]model.CaptchaSession
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]model.CaptchaSession)}
}

func (m *MemorySessionStore) Create(_ context.Context, s *model.CaptchaSession) error {
	m.mu.Lock()
	m.sessions[s.ID] = *s
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Find(_ context.Context, id string) (*model.CaptchaSession, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// DeleteExpired drops every session expired at now.
func (m *MemorySessionStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
