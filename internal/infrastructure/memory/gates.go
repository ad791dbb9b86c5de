package memory

import (
	"context"
	"errors"

	domorder "github.com/arzanshop/checkout/internal/domain/order"
	domwallet "github.com/arzanshop/checkout/internal/domain/wallet"
)

// IsContactVerified reads the verification flag off the account row. Missing
// accounts count as unverified.
func (r *UserRepository) IsContactVerified(ctx context.Context, userID int64) (bool, error) {
	a, err := r.GetAccount(ctx, userID)
	if errors.Is(err, domwallet.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.ContactVerified, nil
}

// HasDeliveredOrder scans for an order of the user that already reached
// delivery, which disqualifies the first-plan offer.
func (r *OrderRepository) HasDeliveredOrder(ctx context.Context, userID int64) (bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.orders {
		if o.UserID != userID {
			continue
		}
		switch o.Status {
		case domorder.StatusDelivered, domorder.StatusCompleted:
			return true, nil
		}
	}
	return false, nil
}
