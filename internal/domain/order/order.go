package order

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("order: not found")
	ErrNotOwner        = errors.New("order: not owned by caller")
	ErrInvalidStatus   = errors.New("order: invalid status for requested action")
	ErrInvalidAmount   = errors.New("order: amount must be greater than zero")
	ErrAmountExceeded  = errors.New("order: amount exceeds payable total")
	ErrDiscountApplied = errors.New("order: discount already applied")
	ErrInvariant       = errors.New("order: invariant violation")
)

type PaymentType string

const (
	PaymentNone      PaymentType = "NONE"
	PaymentCard      PaymentType = "CARD"
	PaymentWallet    PaymentType = "WALLET"
	PaymentMixed     PaymentType = "MIXED"
	PaymentFirstPlan PaymentType = "FIRST_PLAN"
)

type ReceiptKind string

const (
	ReceiptNone     ReceiptKind = ""
	ReceiptPhoto    ReceiptKind = "photo"
	ReceiptDocument ReceiptKind = "document"
	ReceiptText     ReceiptKind = "text"
)

// CategorySubscription is the distinguished service category eligible for the
// first-plan payment path.
const CategorySubscription = "AI"

type Order struct {
	ID              int64
	UserID          int64
	ServiceCategory string
	ServiceCode     string
	Status          Status
	AmountOriginal  int64
	AmountTotal     int64
	DiscountAmount  int64
	DiscountCode    string
	PaymentType     PaymentType
	WalletReserved  int64
	WalletUsed      int64
	ReceiptFileID   string
	ReceiptText     string
	ReceiptKind     ReceiptKind
	CustomerComment string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New builds an order in the initial awaiting-payment status. Orders arrive
// already priced; creation policy lives outside this module.
func New(id, userID int64, category, code string, amount int64) (*Order, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	now := time.Now().UTC()
	return &Order{
		ID:              id,
		UserID:          userID,
		ServiceCategory: category,
		ServiceCode:     code,
		Status:          StatusAwaitingPayment,
		AmountOriginal:  amount,
		AmountTotal:     amount,
		PaymentType:     PaymentNone,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// OwnedBy reports whether the order belongs to the given user.
func (o *Order) OwnedBy(userID int64) bool { return o.UserID == userID }

// HasConfirmedDiscount reports whether a discount is recorded on the order.
// DiscountAmount > 0 and the code reference are set together or not at all.
func (o *Order) HasConfirmedDiscount() bool {
	return o.DiscountAmount > 0 && o.DiscountCode != ""
}

// ApplyDiscount records a validated discount on the order. A second
// application is rejected.
func (o *Order) ApplyDiscount(code string, amount int64) error {
	if o.HasConfirmedDiscount() {
		return ErrDiscountApplied
	}
	if code == "" || amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > o.AmountOriginal {
		return ErrAmountExceeded
	}
	o.DiscountCode = code
	o.DiscountAmount = amount
	o.AmountTotal = o.AmountOriginal - amount
	o.touch()
	return nil
}

// ClearDiscount rolls back a pending-but-unconfirmed discount application.
func (o *Order) ClearDiscount() {
	o.DiscountCode = ""
	o.DiscountAmount = 0
	o.AmountTotal = o.AmountOriginal
	o.touch()
}

// SetReceipt stores the proof-of-payment artifact. Exactly one artifact kind
// is retained.
func (o *Order) SetReceipt(kind ReceiptKind, fileID, text string) {
	o.ReceiptKind = kind
	o.ReceiptFileID = fileID
	o.ReceiptText = text
	o.touch()
}

// ReserveWallet earmarks a wallet amount for this order. The caller performs
// the matching ledger mutation.
func (o *Order) ReserveWallet(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount+o.WalletUsed > o.AmountTotal {
		return ErrAmountExceeded
	}
	o.WalletReserved = amount
	o.touch()
	return nil
}

// ConsumeWallet records a fully debited wallet amount.
func (o *Order) ConsumeWallet(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if o.WalletReserved+amount > o.AmountTotal {
		return ErrAmountExceeded
	}
	o.WalletUsed = amount
	o.touch()
	return nil
}

// ReleaseWalletReserve drops the earmark after a refund.
func (o *Order) ReleaseWalletReserve() {
	o.WalletReserved = 0
	o.touch()
}

// CheckInvariants verifies the amount and discount invariants. The repository
// rejects any update that violates them.
func (o *Order) CheckInvariants() error {
	if o.AmountTotal < 0 {
		return ErrInvariant
	}
	if o.AmountTotal != o.AmountOriginal-o.DiscountAmount {
		return ErrInvariant
	}
	if o.WalletReserved+o.WalletUsed > o.AmountTotal {
		return ErrInvariant
	}
	if (o.DiscountAmount > 0) != (o.DiscountCode != "") {
		return ErrInvariant
	}
	return nil
}

// Clone returns a copy so repository callers cannot mutate stored state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
