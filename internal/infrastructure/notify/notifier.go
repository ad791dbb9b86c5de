package notify

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/arzanshop/checkout/internal/application/checkout"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const sendTimeout = 30 * time.Second

// Recipient is one admin delivery target (a chat, a webhook, ...).
type Recipient interface {
	Name() string
	Send(ctx context.Context, e checkout.Event) error
}

// AdminNotifier fans an event out to all recipients as independent bounded
// send tasks. Each task captures its own error; none of them can fail the
// operation that triggered the notification.
type AdminNotifier struct {
	recipients  []Recipient
	concurrency int
	log         *zap.Logger
	failures    *prometheus.CounterVec // admin_notify_failures_total{recipient}
}

func NewAdminNotifier(log *zap.Logger, failures *prometheus.CounterVec, recipients ...Recipient) *AdminNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdminNotifier{
		recipients:  recipients,
		concurrency: 8, // per-event fanout cap
		log:         log.With(zap.String("component", "admin_notifier")),
		failures:    failures,
	}
}

// Notify delivers e to every recipient, best-effort. It returns immediately;
// delivery runs detached from the caller.
func (n *AdminNotifier) Notify(ctx context.Context, e checkout.Event) {
	if e == nil || len(n.recipients) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				n.log.Error("notify_panic",
					zap.String("event", e.EventName()),
					zap.Any("panic", r),
					zap.String("stack", string(debug.Stack())),
				)
			}
		}()
		n.fanout(ctx, e)
	}()
}

func (n *AdminNotifier) fanout(ctx context.Context, e checkout.Event) {
	g := new(errgroup.Group)
	g.SetLimit(n.concurrency)

	for _, rcpt := range n.recipients {
		rcpt := rcpt
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
			defer cancel()

			if err := rcpt.Send(sendCtx, e); err != nil {
				n.log.Warn("notify_send_failed",
					zap.String("event", e.EventName()),
					zap.String("recipient", rcpt.Name()),
					zap.Error(err),
				)
				if n.failures != nil {
					n.failures.WithLabelValues(rcpt.Name()).Inc()
				}
			}
			// Errors are captured per task, never propagated.
			return nil
		})
	}

	_ = g.Wait()
	n.log.Debug("notify_fanned_out",
		zap.String("event", e.EventName()),
		zap.Int("recipients", len(n.recipients)),
	)
}
