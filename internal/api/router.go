// Package api exposes the notification service over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iamusmankhan101/visioncare/pkg/clientip"
	"github.com/iamusmankhan101/visioncare/pkg/environment"
	"github.com/iamusmankhan101/visioncare/pkg/httpserver"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/requestid"
)

// Registry is the subscription registry used by the push routes.
type Registry interface {
	Register(ctx context.Context, channel notifications.Channel, endpointKey string, credentials map[string]string) (notifications.Subscription, error)
	Remove(ctx context.Context, channel notifications.Channel, endpointKey string) (bool, error)
	CountByChannel(ctx context.Context) (map[notifications.Channel]int, error)
}

// Notifier runs dispatch cycles and keeps their statistics.
type Notifier interface {
	Notify(ctx context.Context, event notifications.NotificationEvent) notifications.Result
	Stats() notifications.StatsSnapshot
}

// Ingester accepts business events.
type Ingester interface {
	Ingest(ctx context.Context, raw notifications.RawEvent) notifications.IngestResult
}

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions selects the services to mount. Nil services are skipped.
type RouterOptions struct {
	Push    Mountable
	Notify  Mountable
	Webhook Mountable

	// Env is attached to every request context when set.
	Env environment.Environment

	// PublicLimit wraps the routes reachable without credentials (/push and
	// /webhook), e.g. a ratelimiter.Middleware.
	PublicLimit func(http.Handler) http.Handler

	// Readiness checks, e.g. pg.Healthcheck(pool).
	Checks map[string]httpserver.Check
	Logger *slog.Logger
}

// Router builds the service router:
//
//	/push/public-key, /push/subscribe, /push/unsubscribe
//	/notify/send, /notify/test, /notify/stats
//	/webhook/order-placed
//	/health/live, /health/ready
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, clientip.Middleware)
	if opts.Env != "" {
		r.Use(environment.Middleware(opts.Env))
	}

	public := func(h http.Handler) http.Handler {
		if opts.PublicLimit == nil {
			return h
		}
		return opts.PublicLimit(h)
	}

	if opts.Push != nil {
		r.Mount("/push", public(opts.Push.Handle()))
	}
	if opts.Notify != nil {
		r.Mount("/notify", opts.Notify.Handle())
	}
	if opts.Webhook != nil {
		r.Mount("/webhook", public(opts.Webhook.Handle()))
	}

	r.Route("/health", func(h chi.Router) {
		h.Get("/live", httpserver.LivenessHandler())
		h.Get("/ready", httpserver.ReadinessHandler(opts.Logger, opts.Checks))
	})

	return r
}
