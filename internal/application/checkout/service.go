package checkout

import (
	"context"
	"time"

	appwallet "github.com/arzanshop/checkout/internal/application/wallet"
	domdiscount "github.com/arzanshop/checkout/internal/domain/discount"
	domorder "github.com/arzanshop/checkout/internal/domain/order"
	domsession "github.com/arzanshop/checkout/internal/domain/session"
	domwallet "github.com/arzanshop/checkout/internal/domain/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "checkout-engine"

// Metrics are the RED instruments for the entry points, registered in main
// and injected here.
type Metrics struct {
	Actions   *prometheus.CounterVec   // checkout_actions_total{action,outcome}
	Durations *prometheus.HistogramVec // checkout_action_duration_seconds{action}
}

// Service is the checkout orchestrator. One method per user action; each
// validates ownership and current status, runs the discount resolution gate
// where required, delegates to the selected payment path, and commits
// terminal transitions through the status machine and the wallet ledger.
type Service struct {
	orders    domorder.Repository
	sessions  domsession.Repository
	accounts  domwallet.Repository
	ledger    *appwallet.Ledger
	validator domdiscount.Validator
	contacts  ContactGate
	history   HistoryGate
	notifier  Notifier

	tracer  trace.Tracer
	metrics Metrics
}

func NewService(
	orders domorder.Repository,
	sessions domsession.Repository,
	accounts domwallet.Repository,
	ledger *appwallet.Ledger,
	validator domdiscount.Validator,
	contacts ContactGate,
	history HistoryGate,
	notifier Notifier,
	metrics Metrics,
) *Service {
	return &Service{
		orders:    orders,
		sessions:  sessions,
		accounts:  accounts,
		ledger:    ledger,
		validator: validator,
		contacts:  contacts,
		history:   history,
		notifier:  notifier,
		tracer:    otel.Tracer(tracerName),
		metrics:   metrics,
	}
}

// begin opens a span for an entry point and returns the completion hook that
// records outcome metrics. Callers defer done with the final error.
func (s *Service) begin(ctx context.Context, action string, orderID int64) (context.Context, func(err error)) {
	ctx, span := s.tracer.Start(ctx, "UC."+action,
		trace.WithAttributes(
			attribute.String("action", action),
			attribute.Int64("order.id", orderID),
		),
	)
	start := time.Now()

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		if s.metrics.Actions != nil {
			s.metrics.Actions.WithLabelValues(action, outcome).Inc()
		}
		if s.metrics.Durations != nil {
			s.metrics.Durations.WithLabelValues(action).Observe(time.Since(start).Seconds())
		}
	}
}

// loadOwnedOrder fetches the order and verifies the caller owns it.
func (s *Service) loadOwnedOrder(ctx context.Context, userID, orderID int64) (*domorder.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.OwnedBy(userID) {
		return nil, domorder.ErrNotOwner
	}
	return o, nil
}

// loadPayableOrder additionally requires the order to still be awaiting
// payment.
func (s *Service) loadPayableOrder(ctx context.Context, userID, orderID int64) (*domorder.Order, error) {
	o, err := s.loadOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != domorder.StatusAwaitingPayment {
		return nil, domorder.ErrInvalidStatus
	}
	return o, nil
}

// sessionFor returns the caller's staged session when it belongs to the given
// order, or session.ErrMismatch when it is absent or staged for another flow.
func (s *Service) sessionFor(ctx context.Context, userID, orderID int64) (*domsession.Session, error) {
	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, domsession.ErrMismatch
	}
	if !sess.For(orderID) {
		return nil, domsession.ErrMismatch
	}
	return sess, nil
}

// notify hands the event to the admin channel detached from the request
// context, so caller cancellation cannot break an already committed mutation.
func (s *Service) notify(ctx context.Context, e Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(context.WithoutCancel(ctx), e)
}

// CheckoutSummary rebuilds the checkout prompt data for an order.
func (s *Service) CheckoutSummary(ctx context.Context, userID, orderID int64) (_ *Summary, err error) {
	ctx, done := s.begin(ctx, "checkout.summary", orderID)
	defer func() { done(err) }()

	o, err := s.loadOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	return &Summary{
		OrderID:         o.ID,
		ServiceCategory: o.ServiceCategory,
		ServiceCode:     o.ServiceCode,
		Status:          o.Status,
		PaymentType:     o.PaymentType,
		AmountOriginal:  o.AmountOriginal,
		DiscountAmount:  o.DiscountAmount,
		DiscountCode:    o.DiscountCode,
		AmountTotal:     o.AmountTotal,
		PlanEligible:    o.ServiceCategory == domorder.CategorySubscription && o.PaymentType != domorder.PaymentFirstPlan,
	}, nil
}

// AdvanceStatus is the bare transition primitive for the admin-approval
// collaborator. It enforces the lifecycle graph but carries no approval
// policy and no ownership check.
func (s *Service) AdvanceStatus(ctx context.Context, orderID int64, to domorder.Status) (_ *Result, err error) {
	ctx, done := s.begin(ctx, "checkout.advance_status", orderID)
	defer func() { done(err) }()

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	updated, err := s.orders.UpdateWithStatus(ctx, orderID, o.Status, func(o *domorder.Order) error {
		return o.Transition(to)
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		OrderID:    orderID,
		Status:     updated.Status,
		MessageKey: MsgStatusAdvanced,
	}, nil
}
