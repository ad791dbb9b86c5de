package order

// Status is the authoritative order lifecycle position. Handlers never assign
// it directly; every change goes through Transition so the edge set below is
// enforced in exactly one place.
type Status string

const (
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusPendingConfirm  Status = "PENDING_CONFIRM"
	StatusPendingPlan     Status = "PENDING_PLAN"
	StatusPlanConfirmed   Status = "PLAN_CONFIRMED"
	StatusApproved        Status = "APPROVED"
	StatusInProgress      Status = "IN_PROGRESS"
	StatusReadyToDeliver  Status = "READY_TO_DELIVER"
	StatusDelivered       Status = "DELIVERED"
	StatusCompleted       Status = "COMPLETED"
	StatusCanceled        Status = "CANCELED"
	StatusExpired         Status = "EXPIRED"
	StatusRejected        Status = "REJECTED"
)

// transitions is the full lifecycle graph. Edges past PENDING_CONFIRM /
// IN_PROGRESS / PENDING_PLAN are driven by the admin-approval collaborator;
// the engine exposes the primitive but owns no approval policy. EXPIRED and
// REJECTED are externally triggered terminal outcomes.
var transitions = map[Status][]Status{
	StatusAwaitingPayment: {StatusPendingConfirm, StatusInProgress, StatusPendingPlan, StatusCanceled, StatusExpired, StatusRejected},
	StatusPendingConfirm:  {StatusApproved, StatusCanceled, StatusRejected},
	StatusPendingPlan:     {StatusPlanConfirmed, StatusRejected},
	StatusPlanConfirmed:   {StatusApproved},
	StatusApproved:        {StatusInProgress},
	StatusInProgress:      {StatusReadyToDeliver},
	StatusReadyToDeliver:  {StatusDelivered},
	StatusDelivered:       {StatusCompleted},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further mutation of the order is permitted.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusExpired, StatusRejected:
		return true
	}
	return false
}

// Cancellable reports whether the buyer may still cancel the order.
func (s Status) Cancellable() bool {
	return s == StatusAwaitingPayment || s == StatusPendingConfirm
}

// Transition moves the order to the target status, rejecting edges outside
// the graph.
func (o *Order) Transition(to Status) error {
	if !CanTransition(o.Status, to) {
		return ErrInvalidStatus
	}
	o.Status = to
	o.touch()
	return nil
}
