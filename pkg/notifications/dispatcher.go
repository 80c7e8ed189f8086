package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/async"
	"github.com/iamusmankhan101/visioncare/pkg/logger"
)

const (
	DefaultMaxConcurrency = 16
	DefaultSendTimeout    = 10 * time.Second
)

// Result summarizes one dispatch.
type Result struct {
	Attempts []DeliveryAttempt `json:"attempts"`
	Sent     int               `json:"sent"`
	Failed   int               `json:"failed"`
	Pruned   int               `json:"pruned"`
}

// Lister supplies the subscriptions to dispatch to. *Registry implements it.
type Lister interface {
	ListAll(ctx context.Context) ([]Subscription, error)
}

// Dispatcher fans an event out to every subscription through the adapter
// registered for its channel.
type Dispatcher struct {
	subs           Lister
	adapters       map[Channel]Adapter
	maxConcurrency int
	sendTimeout    time.Duration
	logger         *slog.Logger
}

type DispatcherOption func(*Dispatcher)

// WithAdapter registers the adapter for channel, replacing any previous one.
func WithAdapter(channel Channel, a Adapter) DispatcherOption {
	return func(d *Dispatcher) {
		if a != nil {
			d.adapters[channel] = a
		}
	}
}

func WithMaxConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxConcurrency = n
		}
	}
}

func WithSendTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

func NewDispatcher(subs Lister, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		subs:           subs,
		adapters:       make(map[Channel]Adapter),
		maxConcurrency: DefaultMaxConcurrency,
		sendTimeout:    DefaultSendTimeout,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HasAdapter reports whether channel has a delivery path.
func (d *Dispatcher) HasAdapter(channel Channel) bool {
	_, ok := d.adapters[channel]
	return ok
}

// Dispatch sends event to every current subscription and returns one attempt
// per subscription, in registry order. It never fails: a registry read error
// yields an empty result.
func (d *Dispatcher) Dispatch(ctx context.Context, event NotificationEvent) Result {
	subs, err := d.subs.ListAll(ctx)
	if err != nil {
		d.logger.LogAttrs(ctx, slog.LevelError, "failed to list subscriptions for dispatch",
			logger.DedupKey(event.DedupKey),
			logger.Error(err),
		)
		return Result{Attempts: []DeliveryAttempt{}}
	}

	msg := event.Message()
	attempts := async.Map(ctx, d.maxConcurrency, subs, func(ctx context.Context, sub Subscription) DeliveryAttempt {
		return d.send(ctx, sub, msg)
	})

	res := Result{Attempts: attempts}
	for _, a := range attempts {
		if a.Sent() {
			res.Sent++
		} else {
			res.Failed++
		}
	}

	d.logger.LogAttrs(ctx, slog.LevelInfo, "notification dispatched",
		logger.DedupKey(event.DedupKey),
		logger.Count("subscriptions", len(subs)),
		logger.Count("sent", res.Sent),
		logger.Count("failed", res.Failed),
	)
	return res
}

func (d *Dispatcher) send(ctx context.Context, sub Subscription, msg Message) DeliveryAttempt {
	adapter, ok := d.adapters[sub.Channel]
	if !ok {
		return NewAttempt(sub, "").Fail(Transient(fmt.Errorf("%w: %s", ErrNoPathAvailable, sub.Channel)))
	}

	ctx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	done := make(chan DeliveryAttempt, 1)
	go func() {
		done <- adapter.Send(ctx, sub, msg)
	}()

	var attempt DeliveryAttempt
	select {
	case attempt = <-done:
	case <-ctx.Done():
		attempt = NewAttempt(sub, "").Fail(Transient(ctx.Err()))
		attempt.Duration = d.sendTimeout
	}

	level := slog.LevelDebug
	if !attempt.Sent() {
		level = slog.LevelWarn
	}
	d.logger.LogAttrs(ctx, level, "delivery attempt",
		logger.Channel(string(sub.Channel)),
		logger.SubscriptionID(sub.ID),
		logger.Gateway(attempt.Gateway),
		logger.Outcome(string(attempt.Outcome)),
		slog.String("error", attempt.Error),
	)
	return attempt
}
