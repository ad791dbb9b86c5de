package checkout

import (
	"context"
	"fmt"

	domorder "github.com/arzanshop/checkout/internal/domain/order"
	"github.com/arzanshop/checkout/internal/pkg/logging"
	"go.uber.org/zap"
)

// Cancel aborts an order while it is still cancellable. Any wallet reserve is
// refunded in full, a pending discount application is released, and the order
// moves to its terminal CANCELED status. The transition is compare-and-set
// first so a racing commit cannot be clobbered; only after the cancel holds
// are the funds returned.
func (s *Service) Cancel(ctx context.Context, userID, orderID int64) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "checkout.cancel", orderID)
	defer func() { done(err) }()

	logger := logging.FromContext(ctx).With(zap.String("component", "checkout_service"))

	o, err := s.loadOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.Cancellable() {
		return nil, domorder.ErrInvalidStatus
	}

	reserved := o.WalletReserved
	updated, err := s.orders.UpdateWithStatus(ctx, orderID, o.Status, func(o *domorder.Order) error {
		o.ReleaseWalletReserve()
		return o.Transition(domorder.StatusCanceled)
	})
	if err != nil {
		return nil, err
	}

	if reserved > 0 {
		note := fmt.Sprintf("Cancel order #%d", orderID)
		if err := s.ledger.Refund(ctx, userID, reserved, note, orderID); err != nil {
			// The cancel already holds; surface the refund failure loudly so
			// the operator reconciles the ledger.
			logger.Error("cancel_refund_failed",
				zap.Int64("order_id", orderID),
				zap.Int64("amount", reserved),
				zap.Error(err),
			)
			return nil, err
		}
	}

	if err := s.validator.Release(ctx, orderID); err != nil {
		logger.Warn("discount_release_failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
	if err := s.sessions.Clear(ctx, userID); err != nil {
		logger.Warn("session_clear_failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	logger.Info("order_canceled",
		zap.Int64("order_id", orderID),
		zap.Int64("refunded", reserved),
	)
	s.notify(ctx, domorder.NewCanceledEvent(updated, reserved))

	return &Result{
		OrderID:    orderID,
		Status:     updated.Status,
		MessageKey: MsgOrderCanceled,
	}, nil
}
