package checkout

import (
	"context"
	"fmt"

	domorder "github.com/arzanshop/checkout/internal/domain/order"
	domsession "github.com/arzanshop/checkout/internal/domain/session"
	domwallet "github.com/arzanshop/checkout/internal/domain/wallet"
	"github.com/arzanshop/checkout/internal/pkg/logging"
	"go.uber.org/zap"
)

// SelectMethod is the entry point for choosing a payment method. It gates on
// contact verification, validates the order, runs the discount resolution
// sub-flow when it is still open, and otherwise starts the chosen method.
func (s *Service) SelectMethod(ctx context.Context, userID, orderID int64, method domsession.Method) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "checkout.select_method", orderID)
	defer func() { done(err) }()

	if !method.Valid() {
		return nil, ErrInvalidMethod
	}
	verified, err := s.contacts.IsContactVerified(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("checkout: contact gate: %w", err)
	}
	if !verified {
		return nil, ErrContactUnverified
	}

	o, err := s.loadPayableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	// The first-plan path has no discount negotiation; it is a fixed offer.
	if method == domsession.MethodPlan {
		return s.startPlan(ctx, o)
	}

	sess, ready, res, err := s.ensureDiscountReady(ctx, userID, o, method)
	if err != nil {
		return nil, err
	}
	if !ready {
		return res, nil
	}
	return s.startMethod(ctx, sess, o, method)
}

// startMethod dispatches to the method-specific setup once the discount
// sub-flow is applied or declined.
func (s *Service) startMethod(ctx context.Context, sess *domsession.Session, o *domorder.Order, method domsession.Method) (*Result, error) {
	switch method {
	case domsession.MethodCard:
		return s.startCard(ctx, sess, o)
	case domsession.MethodWallet:
		return s.startWallet(ctx, sess, o)
	case domsession.MethodMixed:
		return s.startMixed(ctx, sess, o)
	default:
		return nil, ErrInvalidMethod
	}
}

// startCard marks the order for card payment and opens receipt collection.
// No ledger or status change happens until the receipt is confirmed.
func (s *Service) startCard(ctx context.Context, sess *domsession.Session, o *domorder.Order) (*Result, error) {
	if _, err := s.orders.UpdateWithStatus(ctx, o.ID, domorder.StatusAwaitingPayment, func(o *domorder.Order) error {
		o.PaymentType = domorder.PaymentCard
		return nil
	}); err != nil {
		return nil, err
	}

	sess.Method = domsession.MethodCard
	sess.Stage = domsession.StageReceiptCollect
	sess.ClearReceipt()
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: stage card session: %w", err)
	}

	return &Result{
		OrderID:    o.ID,
		Status:     o.Status,
		Stage:      sess.Stage,
		Discount:   sess.Discount,
		MessageKey: MsgCardInstructions,
	}, nil
}

// startWallet verifies the balance covers the payable total and stages the
// confirmation step. The debit itself happens only on ConfirmWallet.
func (s *Service) startWallet(ctx context.Context, sess *domsession.Session, o *domorder.Order) (*Result, error) {
	account, err := s.accounts.GetAccount(ctx, o.UserID)
	if err != nil {
		return nil, err
	}
	if account.Balance < o.AmountTotal {
		return nil, domwallet.ErrInsufficientFunds
	}

	sess.Method = domsession.MethodWallet
	sess.Stage = domsession.StageWalletConfirm
	sess.Comment = ""
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: stage wallet session: %w", err)
	}

	return &Result{
		OrderID:    o.ID,
		Status:     o.Status,
		Stage:      sess.Stage,
		Discount:   sess.Discount,
		MessageKey: MsgWalletConfirm,
	}, nil
}

// startMixed asks for the wallet portion of a mixed payment.
func (s *Service) startMixed(ctx context.Context, sess *domsession.Session, o *domorder.Order) (*Result, error) {
	sess.Method = domsession.MethodMixed
	sess.Stage = domsession.StageMixedAmount
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: stage mixed session: %w", err)
	}

	return &Result{
		OrderID:    o.ID,
		Status:     o.Status,
		Stage:      sess.Stage,
		Discount:   sess.Discount,
		MessageKey: MsgMixedAmountPrompt,
	}, nil
}

// startPlan opens the first-plan path: subscription category only, and only
// for buyers without a delivered order.
func (s *Service) startPlan(ctx context.Context, o *domorder.Order) (*Result, error) {
	if o.ServiceCategory != domorder.CategorySubscription {
		return nil, ErrPlanNotEligible
	}
	used, err := s.history.HasDeliveredOrder(ctx, o.UserID)
	if err != nil {
		return nil, fmt.Errorf("checkout: history gate: %w", err)
	}
	if used {
		return nil, ErrPlanAlreadyUsed
	}

	if _, err := s.orders.UpdateWithStatus(ctx, o.ID, domorder.StatusAwaitingPayment, func(o *domorder.Order) error {
		o.PaymentType = domorder.PaymentFirstPlan
		return nil
	}); err != nil {
		return nil, err
	}

	sess := &domsession.Session{
		UserID:  o.UserID,
		OrderID: o.ID,
		Method:  domsession.MethodPlan,
		Stage:   domsession.StagePlanComment,
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: stage plan session: %w", err)
	}

	return &Result{
		OrderID:    o.ID,
		Status:     o.Status,
		Stage:      sess.Stage,
		MessageKey: MsgPlanCommentAsk,
	}, nil
}

// SubmitMixedAmount validates the wallet portion, reserves it atomically, and
// hands off to receipt collection for the remainder. The order stays in
// AWAITING_PAYMENT until the receipt is confirmed.
func (s *Service) SubmitMixedAmount(ctx context.Context, userID, orderID, amount int64) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "checkout.mixed_amount", orderID)
	defer func() { done(err) }()

	sess, err := s.sessionFor(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if sess.Stage != domsession.StageMixedAmount {
		return nil, domsession.ErrMismatch
	}

	o, err := s.loadPayableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, domorder.ErrInvalidAmount
	}
	if amount > o.AmountTotal {
		return nil, domorder.ErrAmountExceeded
	}
	account, err := s.accounts.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account.Balance < amount {
		return nil, domwallet.ErrInsufficientFunds
	}

	// The reserve re-checks the balance inside the atomic mutation; the
	// pre-check above only exists for a friendlier rejection.
	note := fmt.Sprintf("Reserve for order #%d", orderID)
	if err := s.ledger.Reserve(ctx, userID, amount, note, orderID); err != nil {
		return nil, err
	}

	if _, err := s.orders.UpdateWithStatus(ctx, orderID, domorder.StatusAwaitingPayment, func(o *domorder.Order) error {
		if err := o.ReserveWallet(amount); err != nil {
			return err
		}
		o.PaymentType = domorder.PaymentMixed
		return nil
	}); err != nil {
		// The order moved under us after the reserve committed; return the
		// funds so no earmark outlives a failed handoff.
		if refundErr := s.ledger.Refund(ctx, userID, amount, fmt.Sprintf("Revert reserve for order #%d", orderID), orderID); refundErr != nil {
			logging.FromContext(ctx).Error("mixed_reserve_revert_failed",
				zap.Int64("order_id", orderID),
				zap.Int64("amount", amount),
				zap.Error(refundErr),
			)
		}
		return nil, err
	}

	sess.Stage = domsession.StageReceiptCollect
	sess.ClearReceipt()
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: stage mixed receipt session: %w", err)
	}

	return &Result{
		OrderID:    orderID,
		Status:     domorder.StatusAwaitingPayment,
		Stage:      sess.Stage,
		Discount:   sess.Discount,
		MessageKey: MsgMixedReserved,
	}, nil
}

// ConfirmWallet commits a wallet payment: one atomic debit of the payable
// total, then the status transition to IN_PROGRESS. A failed debit aborts
// with no status change; a lost status race refunds the debit.
func (s *Service) ConfirmWallet(ctx context.Context, userID, orderID int64) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "checkout.wallet_confirm", orderID)
	defer func() { done(err) }()

	logger := logging.FromContext(ctx).With(zap.String("component", "checkout_service"))

	sess, err := s.sessionFor(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if sess.Stage != domsession.StageWalletConfirm {
		return nil, domsession.ErrMismatch
	}

	o, err := s.loadPayableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	amount := o.AmountTotal

	// Balance is re-validated inside the debit's critical section; the race
	// between staging and confirming closes there.
	note := fmt.Sprintf("Order #%d", orderID)
	if err := s.ledger.Debit(ctx, userID, amount, note, orderID); err != nil {
		return nil, err
	}

	comment := sess.Comment
	updated, err := s.orders.UpdateWithStatus(ctx, orderID, domorder.StatusAwaitingPayment, func(o *domorder.Order) error {
		if err := o.ConsumeWallet(amount); err != nil {
			return err
		}
		o.PaymentType = domorder.PaymentWallet
		o.CustomerComment = comment
		return o.Transition(domorder.StatusInProgress)
	})
	if err != nil {
		if refundErr := s.ledger.Credit(ctx, userID, amount, fmt.Sprintf("Revert debit for order #%d", orderID), orderID); refundErr != nil {
			logger.Error("wallet_debit_revert_failed",
				zap.Int64("order_id", orderID),
				zap.Int64("amount", amount),
				zap.Error(refundErr),
			)
		}
		return nil, err
	}

	if err := s.validator.Confirm(ctx, orderID); err != nil {
		logger.Warn("discount_confirm_failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
	if err := s.sessions.Clear(ctx, userID); err != nil {
		logger.Warn("session_clear_failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	logger.Info("wallet_payment_committed",
		zap.Int64("order_id", orderID),
		zap.Int64("amount", amount),
	)
	s.notify(ctx, domorder.NewWalletPaidEvent(updated))

	return &Result{
		OrderID:    orderID,
		Status:     updated.Status,
		MessageKey: MsgWalletPaid,
	}, nil
}

// ConfirmPlan commits a first-plan request: comment persisted, status moved
// to PENDING_PLAN, admins notified. No ledger interaction.
func (s *Service) ConfirmPlan(ctx context.Context, userID, orderID int64) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "checkout.plan_confirm", orderID)
	defer func() { done(err) }()

	logger := logging.FromContext(ctx).With(zap.String("component", "checkout_service"))

	sess, err := s.sessionFor(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if sess.Stage != domsession.StagePlanPreview {
		return nil, domsession.ErrMismatch
	}

	o, err := s.loadPayableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.ServiceCategory != domorder.CategorySubscription {
		return nil, ErrPlanNotEligible
	}

	comment := sess.Comment
	updated, err := s.orders.UpdateWithStatus(ctx, orderID, domorder.StatusAwaitingPayment, func(o *domorder.Order) error {
		o.CustomerComment = comment
		o.PaymentType = domorder.PaymentFirstPlan
		return o.Transition(domorder.StatusPendingPlan)
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Clear(ctx, userID); err != nil {
		logger.Warn("session_clear_failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	logger.Info("plan_request_committed", zap.Int64("order_id", orderID))
	s.notify(ctx, domorder.NewPlanRequestedEvent(updated))

	return &Result{
		OrderID:    orderID,
		Status:     updated.Status,
		MessageKey: MsgPlanCommitted,
	}, nil
}
