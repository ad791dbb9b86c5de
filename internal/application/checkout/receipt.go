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

// ReceiptInput is the raw proof-of-payment submission. Exactly one of
// PhotoFileID, DocumentFileID, or Text must be set; Caption optionally seeds
// the customer comment.
type ReceiptInput struct {
	PhotoFileID    string
	DocumentFileID string
	Text           string
	Caption        string
}

// noCommentSentinels are the inputs that normalize to an empty comment.
var noCommentSentinels = map[string]struct{}{
	"بدون توضیح":   {},
	"بدون توضیحات": {},
	"ندارم":        {},
	"-":            {},
	"تمام":         {},
}

func normalizeComment(text string) string {
	text = strings.TrimSpace(text)
	if _, ok := noCommentSentinels[strings.ToLower(text)]; ok {
		return ""
	}
	return text
}

// SubmitReceipt captures the payment proof into the session. Nothing is
// persisted on the order until ConfirmReceipt.
func (s *Service) SubmitReceipt(ctx context.Context, userID, orderID int64, in ReceiptInput) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "receipt.submit", orderID)
	defer func() { done(err) }()

	sess, err := s.sessionFor(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if sess.Stage != domsession.StageReceiptCollect {
		return nil, domsession.ErrMismatch
	}
	if _, err := s.loadPayableOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}

	var kind domorder.ReceiptKind
	var fileID, text string
	switch {
	case in.PhotoFileID != "" && in.DocumentFileID == "" && in.Text == "":
		kind, fileID = domorder.ReceiptPhoto, in.PhotoFileID
	case in.DocumentFileID != "" && in.PhotoFileID == "" && in.Text == "":
		kind, fileID = domorder.ReceiptDocument, in.DocumentFileID
	case strings.TrimSpace(in.Text) != "" && in.PhotoFileID == "" && in.DocumentFileID == "":
		kind, text = domorder.ReceiptText, strings.TrimSpace(in.Text)
	default:
		return nil, ErrInvalidReceipt
	}

	sess.ReceiptKind = string(kind)
	sess.ReceiptFileID = fileID
	sess.ReceiptText = text
	sess.Comment = strings.TrimSpace(in.Caption)
	sess.Stage = domsession.StageReceiptComment
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: stage receipt: %w", err)
	}

	return &Result{
		OrderID:    orderID,
		Status:     domorder.StatusAwaitingPayment,
		Stage:      sess.Stage,
		Discount:   sess.Discount,
		MessageKey: MsgReceiptCommentAsk,
	}, nil
}

// SetComment records the optional comment for the stage the session is in:
// receipt and plan flows advance to their preview, the wallet flow stays on
// its confirm stage. The no-comment sentinels normalize to empty.
func (s *Service) SetComment(ctx context.Context, userID, orderID int64, text string) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "checkout.set_comment", orderID)
	defer func() { done(err) }()

	sess, err := s.sessionFor(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadPayableOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidComment
	}

	comment := normalizeComment(text)
	var messageKey string
	switch sess.Stage {
	case domsession.StageReceiptComment:
		sess.Stage = domsession.StageReceiptPreview
		messageKey = MsgReceiptPreview
	case domsession.StagePlanComment:
		sess.Stage = domsession.StagePlanPreview
		messageKey = MsgPlanPreview
	case domsession.StageWalletConfirm:
		messageKey = MsgWalletCommentSaved
	default:
		return nil, domsession.ErrMismatch
	}

	sess.Comment = comment
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: stage comment: %w", err)
	}

	return &Result{
		OrderID:    orderID,
		Status:     domorder.StatusAwaitingPayment,
		Stage:      sess.Stage,
		Discount:   sess.Discount,
		MessageKey: messageKey,
	}, nil
}

// EditComment returns a previewing flow to its comment stage.
func (s *Service) EditComment(ctx context.Context, userID, orderID int64) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "checkout.edit_comment", orderID)
	defer func() { done(err) }()

	sess, err := s.sessionFor(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	switch sess.Stage {
	case domsession.StageReceiptPreview:
		sess.Stage = domsession.StageReceiptComment
	case domsession.StagePlanPreview:
		sess.Stage = domsession.StagePlanComment
	default:
		return nil, domsession.ErrMismatch
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("checkout: reopen comment: %w", err)
	}

	return &Result{
		OrderID:    orderID,
		Stage:      sess.Stage,
		Discount:   sess.Discount,
		MessageKey: MsgReceiptEditPrompt,
	}, nil
}

// ConfirmReceipt commits the staged receipt: artifact and comment persisted
// on the order, status moved to PENDING_CONFIRM, discount consumption
// finalized, admins notified. Notification failures never abort the commit.
func (s *Service) ConfirmReceipt(ctx context.Context, userID, orderID int64) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "receipt.confirm", orderID)
	defer func() { done(err) }()

	logger := logging.FromContext(ctx).With(zap.String("component", "checkout_service"))

	sess, err := s.sessionFor(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if sess.Stage != domsession.StageReceiptPreview {
		return nil, domsession.ErrMismatch
	}
	if _, err := s.loadOwnedOrder(ctx, userID, orderID); err != nil {
		return nil, err
	}

	kind := domorder.ReceiptKind(sess.ReceiptKind)
	fileID, text, comment := sess.ReceiptFileID, sess.ReceiptText, sess.Comment

	// The status compare-and-set makes a replayed confirm fail closed.
	updated, err := s.orders.UpdateWithStatus(ctx, orderID, domorder.StatusAwaitingPayment, func(o *domorder.Order) error {
		o.SetReceipt(kind, fileID, text)
		o.CustomerComment = comment
		return o.Transition(domorder.StatusPendingConfirm)
	})
	if err != nil {
		return nil, err
	}

	if err := s.validator.Confirm(ctx, orderID); err != nil {
		logger.Warn("discount_confirm_failed", zap.Int64("order_id", orderID), zap.Error(err))
	}
	if err := s.sessions.Clear(ctx, userID); err != nil {
		logger.Warn("session_clear_failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	logger.Info("receipt_committed",
		zap.Int64("order_id", orderID),
		zap.String("receipt_kind", string(kind)),
	)
	s.notify(ctx, domorder.NewReceiptSubmittedEvent(updated))

	return &Result{
		OrderID:    orderID,
		Status:     updated.Status,
		MessageKey: MsgReceiptCommitted,
	}, nil
}
