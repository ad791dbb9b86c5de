package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/arzanshop/checkout/internal/domain/order"
)

// OrderRepository is an in-memory order store with row-level atomicity: every
// read-then-write runs under the store lock, so UpdateWithStatus gives the
// compare-and-set semantics the status machine relies on.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[int64]*domain.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[int64]*domain.Order)}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	_ = ctx
	if o == nil || o.ID == 0 {
		return fmt.Errorf("order repository: id is required")
	}
	if err := o.CheckInvariants(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return fmt.Errorf("order repository: duplicate id %d", o.ID)
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return o.Clone(), nil
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	_ = ctx
	if o == nil || o.ID == 0 {
		return fmt.Errorf("order repository: id is required")
	}
	if err := o.CheckInvariants(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; !exists {
		return domain.ErrNotFound
	}
	r.orders[o.ID] = o.Clone()
	return nil
}

// UpdateWithStatus runs mutate under the row lock only while the stored
// status still equals expect. A stale status fails closed with
// ErrInvalidStatus and nothing is written; mutations violating the order
// invariants are likewise discarded.
func (r *OrderRepository) UpdateWithStatus(ctx context.Context, id int64, expect domain.Status, mutate func(*domain.Order) error) (*domain.Order, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if stored.Status != expect {
		return nil, domain.ErrInvalidStatus
	}

	next := stored.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	if err := next.CheckInvariants(); err != nil {
		return nil, err
	}

	r.orders[id] = next
	return next.Clone(), nil
}
