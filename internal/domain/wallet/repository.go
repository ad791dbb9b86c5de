package wallet

import "context"

// Repository is the atomic per-user wallet store. Change applies the signed
// balance delta and appends the transaction in one critical section; a change
// that would drive the balance below zero fails with ErrInsufficientFunds and
// writes nothing.
type Repository interface {
	GetAccount(ctx context.Context, userID int64) (*Account, error)
	Change(ctx context.Context, tx Transaction) error
	Transactions(ctx context.Context, userID int64) ([]Transaction, error)
}
