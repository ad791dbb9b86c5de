package order

import "time"

// ReceiptSubmittedEvent is emitted when a card or mixed payment receipt is
// committed. It carries everything the admin channel needs to render the
// review notice.
type ReceiptSubmittedEvent struct {
	OrderID       int64
	UserID        int64
	PaymentType   PaymentType
	ReceiptKind   ReceiptKind
	ReceiptFileID string
	ReceiptText   string
	Comment       string
	OccurredAt    time.Time
}

func (ReceiptSubmittedEvent) EventName() string { return "order.receipt_submitted" }

func NewReceiptSubmittedEvent(o *Order) ReceiptSubmittedEvent {
	return ReceiptSubmittedEvent{
		OrderID:       o.ID,
		UserID:        o.UserID,
		PaymentType:   o.PaymentType,
		ReceiptKind:   o.ReceiptKind,
		ReceiptFileID: o.ReceiptFileID,
		ReceiptText:   o.ReceiptText,
		Comment:       o.CustomerComment,
		OccurredAt:    time.Now().UTC(),
	}
}

// WalletPaidEvent is emitted after a wallet payment debit commits.
type WalletPaidEvent struct {
	OrderID    int64
	UserID     int64
	Amount     int64
	Comment    string
	OccurredAt time.Time
}

func (WalletPaidEvent) EventName() string { return "order.wallet_paid" }

func NewWalletPaidEvent(o *Order) WalletPaidEvent {
	return WalletPaidEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Amount:     o.WalletUsed,
		Comment:    o.CustomerComment,
		OccurredAt: time.Now().UTC(),
	}
}

// PlanRequestedEvent is emitted when a first-plan request is confirmed.
type PlanRequestedEvent struct {
	OrderID         int64
	UserID          int64
	ServiceCategory string
	ServiceCode     string
	Comment         string
	OccurredAt      time.Time
}

func (PlanRequestedEvent) EventName() string { return "order.plan_requested" }

func NewPlanRequestedEvent(o *Order) PlanRequestedEvent {
	return PlanRequestedEvent{
		OrderID:         o.ID,
		UserID:          o.UserID,
		ServiceCategory: o.ServiceCategory,
		ServiceCode:     o.ServiceCode,
		Comment:         o.CustomerComment,
		OccurredAt:      time.Now().UTC(),
	}
}

// CanceledEvent is emitted when the buyer cancels an order.
type CanceledEvent struct {
	OrderID    int64
	UserID     int64
	Refunded   int64
	OccurredAt time.Time
}

func (CanceledEvent) EventName() string { return "order.canceled" }

func NewCanceledEvent(o *Order, refunded int64) CanceledEvent {
	return CanceledEvent{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Refunded:   refunded,
		OccurredAt: time.Now().UTC(),
	}
}
