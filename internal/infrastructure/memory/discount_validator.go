package memory

import (
	"context"
	"strings"
	"sync"

	domain "github.com/arzanshop/checkout/internal/domain/discount"
	domorder "github.com/arzanshop/checkout/internal/domain/order"
)

// DiscountCode is a seeded code definition for the in-memory validator.
type DiscountCode struct {
	Code    string
	Title   string
	Amount  int64
	MaxUses int
}

// DiscountValidator is an in-memory stand-in for the external discount
// authority: fixed flat-amount codes with a use limit. Apply stages a use,
// Confirm consumes it, Release rolls a staged use back.
type DiscountValidator struct {
	mu      sync.Mutex
	orders  *OrderRepository
	codes   map[string]*DiscountCode
	uses    map[string]int
	pending map[int64]string // order id -> staged code
}

func NewDiscountValidator(orders *OrderRepository, codes ...DiscountCode) *DiscountValidator {
	v := &DiscountValidator{
		orders:  orders,
		codes:   make(map[string]*DiscountCode, len(codes)),
		uses:    make(map[string]int),
		pending: make(map[int64]string),
	}
	for i := range codes {
		c := codes[i]
		v.codes[strings.ToUpper(c.Code)] = &c
	}
	return v
}

func (v *DiscountValidator) Apply(ctx context.Context, orderID, userID int64, code string) (*domain.Applied, error) {
	o, err := v.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(userID) {
		return nil, domorder.ErrNotOwner
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, staged := v.pending[orderID]; staged || o.HasConfirmedDiscount() {
		return nil, domain.ErrAlreadyApplied
	}

	key := strings.ToUpper(strings.TrimSpace(code))
	c, ok := v.codes[key]
	if !ok {
		return nil, domain.ErrInvalidCode
	}
	if c.MaxUses > 0 && v.uses[key] >= c.MaxUses {
		return nil, domain.ErrInvalidCode
	}
	if c.Amount >= o.AmountTotal {
		return nil, domain.ErrInvalidCode
	}

	v.pending[orderID] = key
	return &domain.Applied{
		Code:           c.Code,
		Title:          c.Title,
		DiscountAmount: c.Amount,
		AmountTotal:    o.AmountTotal - c.Amount,
	}, nil
}

func (v *DiscountValidator) Confirm(ctx context.Context, orderID int64) error {
	_ = ctx

	v.mu.Lock()
	defer v.mu.Unlock()

	key, ok := v.pending[orderID]
	if !ok {
		return nil // nothing staged; confirm is a no-op
	}
	delete(v.pending, orderID)
	v.uses[key]++
	return nil
}

func (v *DiscountValidator) Release(ctx context.Context, orderID int64) error {
	_ = ctx

	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.pending, orderID)
	return nil
}
