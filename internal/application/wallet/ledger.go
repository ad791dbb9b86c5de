package wallet

import (
	"context"
	"fmt"
	"time"

	domwallet "github.com/arzanshop/checkout/internal/domain/wallet"
	"github.com/arzanshop/checkout/internal/pkg/logging"
	"go.uber.org/zap"
)

type IDGenerator interface {
	NewID() string
}

// Ledger performs the atomic balance mutations. Every operation is attributed
// to an order for audit and produces exactly one transaction record. The
// ledger offers no idempotency of its own: callers guarantee at-most-once
// invocation per logical event through session and status gates.
type Ledger struct {
	repo  domwallet.Repository
	idGen IDGenerator
}

func NewLedger(repo domwallet.Repository, idGen IDGenerator) *Ledger {
	return &Ledger{repo: repo, idGen: idGen}
}

// Debit removes amount from the user's balance. Fails with
// ErrInsufficientFunds when the balance would go below zero.
func (l *Ledger) Debit(ctx context.Context, userID, amount int64, note string, orderID int64) error {
	return l.change(ctx, userID, amount, domwallet.TxDebit, note, orderID)
}

// Credit adds amount to the user's balance.
func (l *Ledger) Credit(ctx context.Context, userID, amount int64, note string, orderID int64) error {
	return l.change(ctx, userID, amount, domwallet.TxCredit, note, orderID)
}

// Reserve debits amount earmarked for the order; reversible via Refund until
// the reservation is consumed.
func (l *Ledger) Reserve(ctx context.Context, userID, amount int64, note string, orderID int64) error {
	return l.change(ctx, userID, amount, domwallet.TxReserve, note, orderID)
}

// Refund returns a reserved amount to the user's balance.
func (l *Ledger) Refund(ctx context.Context, userID, amount int64, note string, orderID int64) error {
	return l.change(ctx, userID, amount, domwallet.TxRefund, note, orderID)
}

// Balance reads the current wallet balance.
func (l *Ledger) Balance(ctx context.Context, userID int64) (int64, error) {
	account, err := l.repo.GetAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

func (l *Ledger) change(ctx context.Context, userID, amount int64, kind domwallet.TxKind, note string, orderID int64) error {
	logger := logging.FromContext(ctx).With(zap.String("component", "wallet_ledger"))
	if amount <= 0 {
		return domwallet.ErrInvalidAmount
	}

	tx := domwallet.Transaction{
		ID:        l.idGen.NewID(),
		UserID:    userID,
		OrderID:   orderID,
		Kind:      kind,
		Amount:    amount,
		Note:      note,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Change(ctx, tx); err != nil {
		logger.Warn("wallet_change_failed",
			zap.Int64("user_id", userID),
			zap.Int64("order_id", orderID),
			zap.String("kind", string(kind)),
			zap.Int64("amount", amount),
			zap.Error(err),
		)
		return fmt.Errorf("wallet: %s: %w", kind, err)
	}

	logger.Info("wallet_changed",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", orderID),
		zap.String("kind", string(kind)),
		zap.Int64("amount", amount),
		zap.String("tx_id", tx.ID),
	)
	return nil
}
