package notify

import (
	"context"

	"github.com/arzanshop/checkout/internal/application/checkout"
	"go.uber.org/zap"
)

// LogRecipient writes admin notices to the structured log. It stands in for
// the messaging channel when no outbound transport is wired.
type LogRecipient struct {
	name string
	log  *zap.Logger
}

func NewLogRecipient(name string, log *zap.Logger) *LogRecipient {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogRecipient{name: name, log: log}
}

func (r *LogRecipient) Name() string { return r.name }

func (r *LogRecipient) Send(ctx context.Context, e checkout.Event) error {
	_ = ctx
	r.log.Info("admin_notice",
		zap.String("recipient", r.name),
		zap.String("event", e.EventName()),
		zap.Any("payload", e),
	)
	return nil
}
