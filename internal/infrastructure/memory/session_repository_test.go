package memory

import (
	"context"
	"testing"

	domain "github.com/arzanshop/checkout/internal/domain/session"
	"github.com/stretchr/testify/require"
)

func TestSessionRepositoryRoundTrip(t *testing.T) {
	repo := NewSessionRepository()

	require.NoError(t, repo.Put(context.Background(), &domain.Session{
		UserID:  10,
		OrderID: 42,
		Stage:   domain.StageWalletConfirm,
		Method:  domain.MethodWallet,
	}))

	s, err := repo.Get(context.Background(), 10)
	require.NoError(t, err)
	require.True(t, s.For(42))
	require.Equal(t, domain.StageWalletConfirm, s.Stage)
	require.False(t, s.UpdatedAt.IsZero())
}

func TestSessionRepositoryReplaces(t *testing.T) {
	repo := NewSessionRepository()

	require.NoError(t, repo.Put(context.Background(), &domain.Session{UserID: 10, OrderID: 42}))
	require.NoError(t, repo.Put(context.Background(), &domain.Session{UserID: 10, OrderID: 43}))

	s, err := repo.Get(context.Background(), 10)
	require.NoError(t, err)
	require.False(t, s.For(42))
	require.True(t, s.For(43))
}

func TestSessionRepositoryClear(t *testing.T) {
	repo := NewSessionRepository()

	require.NoError(t, repo.Put(context.Background(), &domain.Session{UserID: 10, OrderID: 42}))
	require.NoError(t, repo.Clear(context.Background(), 10))

	_, err := repo.Get(context.Background(), 10)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// Clearing an absent session is a no-op.
	require.NoError(t, repo.Clear(context.Background(), 10))
}

func TestSessionRepositoryRejectsMissingUser(t *testing.T) {
	repo := NewSessionRepository()
	require.Error(t, repo.Put(context.Background(), &domain.Session{OrderID: 42}))
}
