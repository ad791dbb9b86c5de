package checkout

import (
	domdiscount "github.com/arzanshop/checkout/internal/domain/discount"
	domorder "github.com/arzanshop/checkout/internal/domain/order"
	domsession "github.com/arzanshop/checkout/internal/domain/session"
)

// Message keys returned to the rendering layer. The engine never formats
// user-facing text; it only names what should be said.
const (
	MsgDiscountPrompt      = "discount.prompt"
	MsgDiscountEnterCode   = "discount.enter_code"
	MsgDiscountCodeStaged  = "discount.code_staged"
	MsgDiscountApplied     = "discount.applied"
	MsgCardInstructions    = "checkout.card_instructions"
	MsgWalletConfirm       = "checkout.wallet_confirm_prompt"
	MsgWalletCommentSaved  = "checkout.wallet_comment_saved"
	MsgWalletPaid          = "checkout.wallet_paid"
	MsgMixedAmountPrompt   = "checkout.mixed_amount_prompt"
	MsgMixedReserved       = "checkout.mixed_reserved_send_receipt"
	MsgReceiptCommentAsk   = "receipt.comment_prompt"
	MsgReceiptPreview      = "receipt.preview"
	MsgReceiptEditPrompt   = "receipt.comment_edit_prompt"
	MsgReceiptCommitted    = "receipt.committed"
	MsgPlanCommentAsk      = "plan.comment_prompt"
	MsgPlanPreview         = "plan.preview"
	MsgPlanCommitted       = "plan.committed"
	MsgOrderCanceled       = "checkout.canceled"
	MsgStatusAdvanced      = "checkout.status_advanced"
)

// Result describes the session state after an entry point ran, plus the
// message key the rendering layer should show.
type Result struct {
	OrderID    int64
	Status     domorder.Status
	Stage      domsession.Stage
	Discount   domsession.DiscountStatus
	Applied    *domdiscount.Applied
	MessageKey string
}

// Summary re-renders the checkout prompt for an order: the amounts, an
// applied discount if any, and whether the first-plan button is offered.
type Summary struct {
	OrderID         int64
	ServiceCategory string
	ServiceCode     string
	Status          domorder.Status
	PaymentType     domorder.PaymentType
	AmountOriginal  int64
	DiscountAmount  int64
	DiscountCode    string
	AmountTotal     int64
	PlanEligible    bool
}
