package session

import "context"

// Repository stores at most one in-progress checkout session per user.
type Repository interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Clear(ctx context.Context, userID int64) error
}
