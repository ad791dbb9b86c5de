package memory

import (
	"context"
	"testing"

	domain "github.com/arzanshop/checkout/internal/domain/order"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, repo *OrderRepository, id, userID, amount int64) *domain.Order {
	t.Helper()
	o, err := domain.New(id, userID, "AI", "plus", amount)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), o))
	return o
}

func TestOrderRepositoryGetClones(t *testing.T) {
	repo := NewOrderRepository()
	seedOrder(t, repo, 1, 10, 1000)

	a, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	a.AmountTotal = 1 // must not leak into the store

	b, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(1000), b.AmountTotal)
}

func TestOrderRepositoryGetMissing(t *testing.T) {
	repo := NewOrderRepository()
	_, err := repo.Get(context.Background(), 99)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateWithStatusAppliesUnderMatchingStatus(t *testing.T) {
	repo := NewOrderRepository()
	seedOrder(t, repo, 1, 10, 1000)

	updated, err := repo.UpdateWithStatus(context.Background(), 1, domain.StatusAwaitingPayment, func(o *domain.Order) error {
		return o.Transition(domain.StatusPendingConfirm)
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPendingConfirm, updated.Status)
}

func TestUpdateWithStatusFailsClosedOnStaleStatus(t *testing.T) {
	repo := NewOrderRepository()
	seedOrder(t, repo, 1, 10, 1000)

	_, err := repo.UpdateWithStatus(context.Background(), 1, domain.StatusAwaitingPayment, func(o *domain.Order) error {
		return o.Transition(domain.StatusPendingConfirm)
	})
	require.NoError(t, err)

	// A replay of the same confirm sees PENDING_CONFIRM, not the expected
	// AWAITING_PAYMENT, and must be rejected without mutation.
	_, err = repo.UpdateWithStatus(context.Background(), 1, domain.StatusAwaitingPayment, func(o *domain.Order) error {
		return o.Transition(domain.StatusInProgress)
	})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)

	stored, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, domain.StatusPendingConfirm, stored.Status)
}

func TestUpdateWithStatusDiscardsInvariantViolations(t *testing.T) {
	repo := NewOrderRepository()
	seedOrder(t, repo, 1, 10, 1000)

	_, err := repo.UpdateWithStatus(context.Background(), 1, domain.StatusAwaitingPayment, func(o *domain.Order) error {
		o.DiscountAmount = 500 // no code reference: invariant violation
		return nil
	})
	require.ErrorIs(t, err, domain.ErrInvariant)

	stored, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Zero(t, stored.DiscountAmount)
}
