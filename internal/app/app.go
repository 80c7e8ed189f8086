// Package app wires configuration, storage, channel adapters and the HTTP API
// into a running notification service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/iamusmankhan101/visioncare/handler"
	"github.com/iamusmankhan101/visioncare/internal/api"
	"github.com/iamusmankhan101/visioncare/internal/db/migrations"
	"github.com/iamusmankhan101/visioncare/pkg/environment"
	"github.com/iamusmankhan101/visioncare/pkg/httpserver"
	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/pgstore"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/redisstore"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/sqlitestore"
	"github.com/iamusmankhan101/visioncare/pkg/pg"
	"github.com/iamusmankhan101/visioncare/pkg/ratelimiter"
	"github.com/iamusmankhan101/visioncare/pkg/redis"
)

var (
	ErrPostgresRequired = errors.New("app: postgres connection required")
	ErrRedisRequired    = errors.New("app: redis connection required")
)

// App is the assembled service.
type App struct {
	Registry   *notifications.Registry
	Dispatcher *notifications.Dispatcher
	Notifier   *notifications.Notifier
	Ingress    *notifications.Ingress
	Pool       *pgxpool.Pool
	PublicKey  string

	cfg     Configs
	log     *slog.Logger
	checks  map[string]httpserver.Check
	limiter *ratelimiter.Limiter
	closers []func() error
}

type Option func(*options)

type options struct {
	adapters map[notifications.Channel]notifications.Adapter
}

// WithChannelAdapter overrides the adapter built from configuration.
func WithChannelAdapter(channel notifications.Channel, a notifications.Adapter) Option {
	return func(o *options) {
		o.adapters[channel] = a
	}
}

// New connects the configured backends and builds the notification pipeline.
// Close releases everything New opened, also after a failed New.
func New(ctx context.Context, cfg Configs, log *slog.Logger, opts ...Option) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	o := &options{adapters: map[notifications.Channel]notifications.Adapter{}}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{cfg: cfg, log: log, checks: map[string]httpserver.Check{}}
	if err := a.build(ctx, o); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, o *options) error {
	cfg := a.cfg

	var redisClient *goredis.Client
	if cfg.PG.ConnectionString != "" {
		pool, err := pg.Connect(ctx, cfg.PG)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.Pool = pool
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		a.checks["postgres"] = pg.Healthcheck(pool)

		if cfg.App.RunMigrations {
			if err := pg.Migrate(ctx, pool, migrations.FS, migrations.Dir, cfg.PG, a.log); err != nil {
				return err
			}
		}
	}
	if cfg.Redis.ConnectionURL != "" {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		redisClient = client
		a.closers = append(a.closers, client.Close)
		a.checks["redis"] = redis.Healthcheck(client)
	}

	store, err := a.store(ctx, redisClient)
	if err != nil {
		return err
	}
	a.Registry = notifications.NewRegistry(store, notifications.WithRegistryLogger(a.log))

	adapters, publicKey, err := buildAdapters(ctx, cfg, a.log)
	if err != nil {
		return err
	}
	for ch, ad := range o.adapters {
		adapters[ch] = ad
	}
	a.PublicKey = publicKey

	dispatcherOpts := []notifications.DispatcherOption{
		notifications.WithMaxConcurrency(cfg.App.DispatchConcurrency),
		notifications.WithSendTimeout(cfg.App.SendTimeout),
		notifications.WithDispatcherLogger(a.log),
	}
	for ch, ad := range adapters {
		dispatcherOpts = append(dispatcherOpts, notifications.WithAdapter(ch, ad))
	}
	a.Dispatcher = notifications.NewDispatcher(a.Registry, dispatcherOpts...)

	notifierOpts := []notifications.NotifierOption{
		notifications.WithStats(notifications.NewStats(cfg.App.StatsRecent)),
		notifications.WithNotifierLogger(a.log),
	}
	if a.Pool != nil {
		notifierOpts = append(notifierOpts, notifications.WithAttemptRecorder(pgstore.NewAttemptLog(a.Pool)))
	}
	a.Notifier = notifications.NewNotifier(a.Dispatcher, notifications.NewPruner(a.Registry, a.log), notifierOpts...)

	var dedup notifications.Deduper = notifications.NewMemoryDeduper()
	if redisClient != nil && cfg.App.DedupWithRedis {
		dedup = redisstore.NewDeduper(redisClient)
	}
	ingressOpts := []notifications.IngressOption{
		notifications.WithDedupTTL(cfg.App.DedupTTL),
		notifications.WithIngressLogger(a.log),
	}
	if cfg.App.BackgroundDispatch {
		ingressOpts = append(ingressOpts, notifications.WithBackgroundDispatch())
	}
	a.Ingress = notifications.NewIngress(a.Notifier, dedup, ingressOpts...)

	if cfg.App.RateLimit {
		var limitStore ratelimiter.Store = ratelimiter.NewMemoryStore()
		if redisClient != nil {
			limitStore = ratelimiter.NewRedisStore(redisClient)
		}
		if a.limiter, err = ratelimiter.New(limitStore, cfg.Limit); err != nil {
			return err
		}
	}

	for _, ch := range notifications.Channels() {
		a.log.LogAttrs(ctx, slog.LevelInfo, "channel configured",
			logger.Channel(string(ch)),
			slog.Bool("enabled", a.Dispatcher.HasAdapter(ch)),
		)
	}
	return nil
}

func (a *App) store(ctx context.Context, client *goredis.Client) (notifications.Store, error) {
	switch a.cfg.App.RegistryBackend {
	case BackendPostgres:
		if a.Pool == nil {
			return nil, ErrPostgresRequired
		}
		return pgstore.New(a.Pool), nil
	case BackendSQLite:
		s, err := sqlitestore.Open(ctx, a.cfg.App.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		a.checks["sqlite"] = s.Ping
		return s, nil
	case BackendRedis:
		if client == nil {
			return nil, ErrRedisRequired
		}
		return redisstore.New(client), nil
	default:
		return notifications.NewMemoryStore(), nil
	}
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler {
	webhookOpts := []api.WebhookOption{
		api.WithAdminURL(a.cfg.App.AdminURL),
		api.WithWebhookLogger(a.log),
	}
	if a.cfg.App.WebhookSecret != "" {
		webhookOpts = append(webhookOpts, api.WithSignatureSecret(a.cfg.App.WebhookSecret, a.cfg.App.WebhookMaxAge))
	}

	opts := api.RouterOptions{
		Push:    api.NewPushService(a.Registry, a.PublicKey, a.log),
		Notify:  api.NewNotifyService(a.Registry, a.Notifier, a.log),
		Webhook: api.NewWebhookService(a.Ingress, webhookOpts...),
		Checks:  a.checks,
		Logger:  a.log,
		Env:     environment.Parse(a.cfg.App.Env),
	}
	if a.limiter != nil {
		opts.PublicLimit = ratelimiter.Middleware(a.limiter, ratelimiter.ByClientIP,
			ratelimiter.WithMiddlewareLogger(a.log),
			ratelimiter.WithLimitedHandler(func(w http.ResponseWriter, r *http.Request, _ ratelimiter.Result) {
				_ = handler.JSONError(handler.ErrTooManyRequests).Render(w, r)
			}),
		)
	}
	return api.Router(opts)
}

// Shutdown waits for background dispatches, then releases connections.
func (a *App) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		if a.Ingress != nil {
			a.Ingress.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		a.log.WarnContext(ctx, "background dispatches still running at shutdown", logger.Error(ctx.Err()))
	}
	return a.Close()
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
