package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/arzanshop/checkout/internal/domain/session"
)

// SessionRepository keeps at most one in-progress checkout session per user.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]*domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[int64]*domain.Session)}
}

func (r *SessionRepository) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Clone(), nil
}

func (r *SessionRepository) Put(ctx context.Context, s *domain.Session) error {
	_ = ctx
	if s == nil || s.UserID == 0 {
		return fmt.Errorf("session repository: user id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	clone := s.Clone()
	clone.UpdatedAt = time.Now().UTC()
	r.sessions[s.UserID] = clone
	return nil
}

func (r *SessionRepository) Clear(ctx context.Context, userID int64) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}
