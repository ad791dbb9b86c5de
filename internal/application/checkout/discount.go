package checkout

import (
	"context"
	"fmt"
	"strings"

	domorder "github.com/arzanshop/checkout/internal/domain/order"
	domsession "github.com/arzanshop/checkout/internal/domain/session"
	"github.com/arzanshop/checkout/internal/pkg/logging"
	"go.uber.org/zap"
)

// ensureDiscountReady runs the discount resolution gate for a payment method.
// It returns ready=true with the session when the method may proceed, or
// ready=false with the prompt result when the sub-flow took over. A pending
// code entry blocks with ErrDiscountPending.
func (s *Service) ensureDiscountReady(ctx context.Context, userID int64, o *domorder.Order, method domsession.Method) (sess *domsession.Session, ready bool, res *Result, err error) {
	sess, err = s.sessions.Get(ctx, userID)
	if err != nil || !sess.For(o.ID) {
		sess = &domsession.Session{UserID: userID, OrderID: o.ID}
	}

	// An order already carrying a confirmed discount never re-prompts.
	if o.HasConfirmedDiscount() {
		if sess.Discount != domsession.DiscountApplied {
			sess.Discount = domsession.DiscountApplied
			if err := s.sessions.Put(ctx, sess); err != nil {
				return nil, false, nil, fmt.Errorf("checkout: record applied discount: %w", err)
			}
		}
		return sess, true, nil, nil
	}

	switch sess.Discount {
	case domsession.DiscountApplied, domsession.DiscountDeclined:
		return sess, true, nil, nil
	case domsession.DiscountAwaitCode:
		return nil, false, nil, ErrDiscountPending
	case domsession.DiscountPrompt:
		if sess.Method == method {
			return nil, false, nil, ErrDiscountPending
		}
	}

	sess.Discount = domsession.DiscountPrompt
	sess.Method = method
	sess.Stage = domsession.StageDiscountPrompt
	sess.StagedCode = ""
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, false, nil, fmt.Errorf("checkout: stage discount prompt: %w", err)
	}

	return sess, false, &Result{
		OrderID:    o.ID,
		Status:     o.Status,
		Stage:      sess.Stage,
		Discount:   sess.Discount,
		MessageKey: MsgDiscountPrompt,
	}, nil
}

// AnswerDiscountPrompt handles the yes/no answer. "no" is terminal for this
// order+method attempt and resumes the chosen payment method immediately;
// "yes" opens code entry.
func (s *Service) AnswerDiscountPrompt(ctx context.Context, userID, orderID int64, hasCode bool) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "discount.answer_prompt", orderID)
	defer func() { done(err) }()

	sess, err := s.sessionFor(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if sess.Discount != domsession.DiscountPrompt {
		return nil, domsession.ErrMismatch
	}
	o, err := s.loadPayableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	if !hasCode {
		sess.Discount = domsession.DiscountDeclined
		sess.Stage = domsession.StageNone
		sess.StagedCode = ""
		if err := s.sessions.Put(ctx, sess); err != nil {
			return nil, fmt.Errorf("checkout: decline discount: %w", err)
		}
		return s.startMethod(ctx, sess, o, sess.Method)
	}

	if o.HasConfirmedDiscount() {
		return nil, domorder.ErrDiscountApplied
	}

	sess.Discount = domsession.DiscountAwaitCode
	sess.Stage = domsession.StageDiscountCode
	sess.StagedCode = ""
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: open code entry: %w", err)
	}

	return &Result{
		OrderID:    orderID,
		Status:     o.Status,
		Stage:      sess.Stage,
		Discount:   sess.Discount,
		MessageKey: MsgDiscountEnterCode,
	}, nil
}

// SubmitCode stages a code string without applying it. An explicit apply
// action invokes the validator.
func (s *Service) SubmitCode(ctx context.Context, userID, orderID int64, code string) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "discount.submit_code", orderID)
	defer func() { done(err) }()

	sess, err := s.sessionFor(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if sess.Discount != domsession.DiscountAwaitCode {
		return nil, domsession.ErrMismatch
	}
	o, err := s.loadPayableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrNoStagedCode
	}
	sess.StagedCode = code
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: stage code: %w", err)
	}

	return &Result{
		OrderID:    orderID,
		Status:     o.Status,
		Stage:      sess.Stage,
		Discount:   sess.Discount,
		MessageKey: MsgDiscountCodeStaged,
	}, nil
}

// ApplyCode invokes the external validator on the staged code. On success the
// order's discount fields are set and the payment method resumes; on failure
// the staged code is retained for retry.
func (s *Service) ApplyCode(ctx context.Context, userID, orderID int64) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "discount.apply_code", orderID)
	defer func() { done(err) }()

	logger := logging.FromContext(ctx).With(zap.String("component", "checkout_service"))

	sess, err := s.sessionFor(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	o, err := s.loadPayableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.HasConfirmedDiscount() {
		return nil, domorder.ErrDiscountApplied
	}
	if sess.StagedCode == "" {
		return nil, ErrNoStagedCode
	}

	applied, err := s.validator.Apply(ctx, orderID, userID, sess.StagedCode)
	if err != nil {
		// Staged code survives so the user may retry or cancel back.
		return nil, fmt.Errorf("discount: apply %q: %w", sess.StagedCode, err)
	}

	updated, err := s.orders.UpdateWithStatus(ctx, orderID, domorder.StatusAwaitingPayment, func(o *domorder.Order) error {
		return o.ApplyDiscount(applied.Code, applied.DiscountAmount)
	})
	if err != nil {
		if releaseErr := s.validator.Release(ctx, orderID); releaseErr != nil {
			logger.Warn("discount_release_failed", zap.Int64("order_id", orderID), zap.Error(releaseErr))
		}
		return nil, err
	}

	sess.Discount = domsession.DiscountApplied
	sess.Stage = domsession.StageNone
	sess.StagedCode = ""
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: record applied discount: %w", err)
	}

	logger.Info("discount_applied",
		zap.Int64("order_id", orderID),
		zap.String("code", applied.Code),
		zap.Int64("discount_amount", applied.DiscountAmount),
	)

	res, err := s.startMethod(ctx, sess, updated, sess.Method)
	if err != nil {
		return nil, err
	}
	res.Applied = applied
	res.MessageKey = MsgDiscountApplied
	return res, nil
}

// CancelDiscountEntry backs out of code entry to the yes/no prompt. An
// already applied discount on the order is never discarded here.
func (s *Service) CancelDiscountEntry(ctx context.Context, userID, orderID int64) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "discount.cancel_entry", orderID)
	defer func() { done(err) }()

	sess, err := s.sessionFor(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	o, err := s.loadPayableOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	sess.Discount = domsession.DiscountPrompt
	sess.Stage = domsession.StageDiscountPrompt
	sess.StagedCode = ""
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: reset to prompt: %w", err)
	}

	return &Result{
		OrderID:    orderID,
		Status:     o.Status,
		Stage:      sess.Stage,
		Discount:   sess.Discount,
		MessageKey: MsgDiscountPrompt,
	}, nil
}
