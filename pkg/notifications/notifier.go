package notifications

import (
	"context"
	"log/slog"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
)

// AttemptRecorder persists delivery attempts for audit.
type AttemptRecorder interface {
	Record(ctx context.Context, event NotificationEvent, attempts []DeliveryAttempt) error
}

// Notifier runs a full cycle for one event: dispatch, prune dead endpoints,
// update stats and record the attempts.
type Notifier struct {
	dispatcher *Dispatcher
	pruner     *Pruner
	stats      *Stats
	recorder   AttemptRecorder
	logger     *slog.Logger
	now        func() time.Time
}

type NotifierOption func(*Notifier)

func WithStats(s *Stats) NotifierOption {
	return func(n *Notifier) {
		if s != nil {
			n.stats = s
		}
	}
}

func WithAttemptRecorder(r AttemptRecorder) NotifierOption {
	return func(n *Notifier) {
		n.recorder = r
	}
}

func WithNotifierLogger(l *slog.Logger) NotifierOption {
	return func(n *Notifier) {
		if l != nil {
			n.logger = l
		}
	}
}

func NewNotifier(d *Dispatcher, p *Pruner, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		dispatcher: d,
		pruner:     p,
		stats:      NewStats(0),
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) Stats() StatsSnapshot {
	return n.stats.Snapshot()
}

// Notify dispatches event and prunes every endpoint that failed permanently.
// Recorder failures are logged and do not affect the result.
func (n *Notifier) Notify(ctx context.Context, event NotificationEvent) Result {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = n.now()
	}

	res := n.dispatcher.Dispatch(ctx, event)
	if n.pruner != nil {
		res.Pruned = n.pruner.Apply(ctx, res.Attempts)
	}
	n.stats.Observe(event, res, n.now())

	if n.recorder != nil && len(res.Attempts) > 0 {
		if err := n.recorder.Record(ctx, event, res.Attempts); err != nil {
			n.logger.LogAttrs(ctx, slog.LevelError, "failed to record delivery attempts",
				logger.DedupKey(event.DedupKey),
				logger.Error(err),
			)
		}
	}
	return res
}
