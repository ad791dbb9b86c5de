package session

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("session: not found")
	// ErrMismatch means the staged session does not belong to the order the
	// action names; the caller must restart the flow.
	ErrMismatch = errors.New("session: stale or mismatched flow state")
)

// Stage is the position of a user's in-progress checkout sub-flow.
type Stage string

const (
	StageNone           Stage = ""
	StageDiscountPrompt Stage = "discount_prompt"
	StageDiscountCode   Stage = "discount_code"
	StageWalletConfirm  Stage = "wallet_confirm"
	StageMixedAmount    Stage = "mixed_amount"
	StageReceiptCollect Stage = "receipt_collect"
	StageReceiptComment Stage = "receipt_comment"
	StageReceiptPreview Stage = "receipt_preview"
	StagePlanComment    Stage = "plan_comment"
	StagePlanPreview    Stage = "plan_preview"
)

// Method is the payment method a flow was started for.
type Method string

const (
	MethodCard   Method = "card"
	MethodWallet Method = "wallet"
	MethodMixed  Method = "mixed"
	MethodPlan   Method = "plan"
)

// Valid reports whether m names a known payment method.
func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodWallet, MethodMixed, MethodPlan:
		return true
	}
	return false
}

// DiscountStatus tracks the discount resolution sub-flow for one order+method
// attempt.
type DiscountStatus string

const (
	DiscountNone      DiscountStatus = ""
	DiscountPrompt    DiscountStatus = "prompt"
	DiscountAwaitCode DiscountStatus = "await_code"
	DiscountApplied   DiscountStatus = "applied"
	DiscountDeclined  DiscountStatus = "declined"
)

// Resolved reports whether a payment method may proceed.
func (s DiscountStatus) Resolved() bool {
	return s == DiscountApplied || s == DiscountDeclined
}

// Session is the explicit per-actor record of a multi-step checkout flow. It
// is ephemeral: staged fields are only trusted after re-validation against
// the durable order's current status, and the whole record is discarded when
// a flow is cancelled or superseded.
type Session struct {
	UserID   int64
	OrderID  int64
	Stage    Stage
	Method   Method
	Discount DiscountStatus

	StagedCode string

	ReceiptKind   string
	ReceiptFileID string
	ReceiptText   string
	Comment       string

	UpdatedAt time.Time
}

// For reports whether the session is staged for the given order.
func (s *Session) For(orderID int64) bool {
	return s != nil && s.OrderID == orderID
}

// ClearReceipt drops any staged receipt artifact and comment.
func (s *Session) ClearReceipt() {
	s.ReceiptKind = ""
	s.ReceiptFileID = ""
	s.ReceiptText = ""
	s.Comment = ""
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
