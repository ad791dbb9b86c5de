package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/arzanshop/checkout/internal/domain/wallet"
)

// UserRepository holds wallet accounts and their transaction history. Balance
// change and record append happen in one critical section: they succeed or
// fail together, and a change that would drive the balance below zero writes
// nothing.
type UserRepository struct {
	mu       sync.RWMutex
	accounts map[int64]*domain.Account
	ledger   map[int64][]domain.Transaction
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		accounts: make(map[int64]*domain.Account),
		ledger:   make(map[int64][]domain.Transaction),
	}
}

// PutAccount seeds or replaces an account row. Used by wiring and tests; the
// engine itself never creates accounts.
func (r *UserRepository) PutAccount(a *domain.Account) error {
	if a == nil || a.UserID == 0 {
		return fmt.Errorf("user repository: user id is required")
	}
	if a.Balance < 0 {
		return domain.ErrInvalidAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[a.UserID] = a.Clone()
	return nil
}

func (r *UserRepository) GetAccount(ctx context.Context, userID int64) (*domain.Account, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a.Clone(), nil
}

func (r *UserRepository) Change(ctx context.Context, tx domain.Transaction) error {
	_ = ctx
	if tx.Amount <= 0 {
		return domain.ErrInvalidAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[tx.UserID]
	if !ok {
		return domain.ErrNotFound
	}

	next := a.Balance + tx.Kind.Delta(tx.Amount)
	if next < 0 {
		return domain.ErrInsufficientFunds
	}

	a.Balance = next
	r.ledger[tx.UserID] = append(r.ledger[tx.UserID], tx)
	return nil
}

func (r *UserRepository) Transactions(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.ledger[userID]
	out := make([]domain.Transaction, len(entries))
	copy(out, entries)
	return out, nil
}
