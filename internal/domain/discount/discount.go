package discount

import (
	"context"
	"errors"
)

var (
	ErrInvalidCode    = errors.New("discount: code is not valid for this order")
	ErrAlreadyApplied = errors.New("discount: already applied to this order")
)

// Applied summarises a successful code application for display.
type Applied struct {
	Code           string
	Title          string
	DiscountAmount int64
	AmountTotal    int64
}

// Validator is the external discount-code authority. Apply validates the code
// for the order and returns the computed application; the engine records the
// amounts on the order row. Confirm marks the application as consumed once
// payment is committed; Release rolls back an application that never reached
// payment.
type Validator interface {
	Apply(ctx context.Context, orderID, userID int64, code string) (*Applied, error)
	Confirm(ctx context.Context, orderID int64) error
	Release(ctx context.Context, orderID int64) error
}
