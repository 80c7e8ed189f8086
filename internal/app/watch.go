package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iamusmankhan101/visioncare/internal/orders"
	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/poller"
)

// Ingester is the part of the ingress the order emitter needs.
type Ingester interface {
	Ingest(ctx context.Context, raw notifications.RawEvent) notifications.IngestResult
}

// OrderEmitter pushes each new order found by the poller through the ingress.
// Orders already announced by the webhook are dropped by the dedup window.
// Records the ingress rejects are logged and skipped so that one bad row
// does not stall the poller.
func OrderEmitter(in Ingester, adminURL string, log *slog.Logger) poller.Emitter {
	if log == nil {
		log = slog.Default()
	}
	return poller.EmitterFunc(func(ctx context.Context, n poller.LocalNotification) error {
		res := in.Ingest(ctx, n.Record.OrderPlaced().RawEvent(adminURL))
		if !res.Accepted {
			log.LogAttrs(ctx, slog.LevelWarn, "order skipped",
				logger.Component("orderwatch"),
				slog.String("record_id", n.Record.ID),
				logger.Error(res.Err),
			)
			return nil
		}
		log.LogAttrs(ctx, slog.LevelInfo, "order announced",
			logger.Component("orderwatch"),
			logger.DedupKey(res.DedupKey),
			slog.String("reason", res.Reason),
		)
		return nil
	})
}

// NewOrderWatcher polls the orders table and announces new orders. With
// localOnly the notifications are only logged.
func (a *App) NewOrderWatcher(localOnly bool) (*poller.Poller, error) {
	if a.Pool == nil {
		return nil, errors.Join(ErrPostgresRequired, errors.New("orders table is read from postgres"))
	}

	var emitter poller.Emitter = OrderEmitter(a.Ingress, a.cfg.App.AdminURL, a.log)
	if localOnly {
		emitter = poller.NewLogEmitter(a.log)
	}

	return poller.New(
		orders.NewSource(a.Pool, orders.WithTable(a.cfg.App.OrdersTable)),
		emitter,
		poller.WithInterval(a.cfg.App.PollInterval),
		poller.WithLogger(a.log),
	), nil
}
