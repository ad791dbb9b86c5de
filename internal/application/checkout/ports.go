package checkout

import "context"

// ContactGate answers whether the user passed contact verification. The
// verification flow itself lives outside the engine.
type ContactGate interface {
	IsContactVerified(ctx context.Context, userID int64) (bool, error)
}

// HistoryGate answers whether the user already received a delivered order,
// which disqualifies them from the first-plan offer.
type HistoryGate interface {
	HasDeliveredOrder(ctx context.Context, userID int64) (bool, error)
}

// Event is any domain event with a name identifier.
type Event interface {
	EventName() string
}

// Notifier delivers an event to the admin channel. Delivery is best-effort
// and must never fail the operation that was already committed; Notify
// therefore returns nothing.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}
