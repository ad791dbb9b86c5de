package order

import "context"

// Repository persists orders with row-level atomicity. UpdateWithStatus is the
// compare-and-set primitive: mutate runs under the row lock only when the
// stored status still equals expect, so a stale read fails closed instead of
// overwriting a concurrent transition.
type Repository interface {
	Get(ctx context.Context, id int64) (*Order, error)
	Insert(ctx context.Context, o *Order) error
	Update(ctx context.Context, o *Order) error
	UpdateWithStatus(ctx context.Context, id int64, expect Status, mutate func(*Order) error) (*Order, error)
}
