package wallet

import (
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("wallet: account not found")
	ErrInvalidAmount     = errors.New("wallet: amount must be greater than zero")
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")
)

// TxKind tags a ledger entry. RESERVE is a debit earmarked for an order,
// reversible via REFUND until consumed.
type TxKind string

const (
	TxDebit   TxKind = "DEBIT"
	TxCredit  TxKind = "CREDIT"
	TxReserve TxKind = "RESERVE"
	TxRefund  TxKind = "REFUND"
)

// Delta returns the signed balance change this kind of entry applies.
func (k TxKind) Delta(amount int64) int64 {
	switch k {
	case TxDebit, TxReserve:
		return -amount
	default:
		return amount
	}
}

// Account is a user's wallet row. ContactVerified is read-only here; the
// verification flow lives outside the engine.
type Account struct {
	UserID          int64
	Balance         int64
	ContactVerified bool
}

func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

// Transaction is an immutable audit record. The balance change and the record
// write commit together or not at all.
type Transaction struct {
	ID        string
	UserID    int64
	OrderID   int64
	Kind      TxKind
	Amount    int64
	Note      string
	CreatedAt time.Time
}
