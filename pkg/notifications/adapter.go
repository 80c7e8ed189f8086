package notifications

import (
	"context"
	"log/slog"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
)

// Adapter delivers a message to one subscription over one channel. Adapters
// never return errors: failures are reported in the attempt outcome.
type Adapter interface {
	Send(ctx context.Context, sub Subscription, msg Message) DeliveryAttempt
}

// AdapterFunc lets an ordinary function act as an Adapter.
type AdapterFunc func(ctx context.Context, sub Subscription, msg Message) DeliveryAttempt

func (f AdapterFunc) Send(ctx context.Context, sub Subscription, msg Message) DeliveryAttempt {
	return f(ctx, sub, msg)
}

// LogAdapter writes the message to the log and reports it as sent. Used in
// mock mode when a channel has no credentials.
type LogAdapter struct {
	logger *slog.Logger
}

func NewLogAdapter(l *slog.Logger) *LogAdapter {
	if l == nil {
		l = slog.Default()
	}
	return &LogAdapter{logger: l}
}

func (a *LogAdapter) Send(ctx context.Context, sub Subscription, msg Message) DeliveryAttempt {
	attempt := NewAttempt(sub, "log")
	a.logger.LogAttrs(ctx, slog.LevelInfo, "mock notification delivered",
		logger.Channel(string(sub.Channel)),
		logger.SubscriptionID(sub.ID),
		logger.Endpoint(sub.EndpointKey),
		slog.String("title", msg.Title),
		slog.String("body", msg.Body),
	)
	return attempt.Succeed()
}
