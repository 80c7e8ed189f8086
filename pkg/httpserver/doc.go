// Package httpserver wraps net/http with graceful shutdown, life-cycle hooks
// and liveness/readiness handlers.
//
// Run binds the listener, fires start hooks, and serves until the context is
// cancelled or SIGINT/SIGTERM arrives. Shutdown drains in-flight requests and
// then runs stop hooks within the same deadline, which is where the
// notification service waits for background deliveries.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//	    httpserver.WithLogger(log),
//	    httpserver.WithStopHook(func(ctx context.Context, _ *slog.Logger) {
//	        notifier.Wait(ctx)
//	    }),
//	)
//	return srv.Run(ctx, router)
package httpserver
