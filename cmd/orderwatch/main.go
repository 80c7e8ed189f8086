// Command orderwatch polls the storefront orders table and announces every
// new order through the notification pipeline. Orders that the webhook
// already announced are dropped by the dedup window.
//
// Usage:
//
//	orderwatch [-local]
//
// With -local new orders are only written to the log.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iamusmankhan101/visioncare/internal/app"
	"github.com/iamusmankhan101/visioncare/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	local := flag.Bool("local", false, "log new orders instead of notifying subscribers")
	flag.Parse()

	if err := run(*local); err != nil {
		slog.Error("orderwatch stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(local bool) error {
	cfg, err := app.LoadConfigs()
	if err != nil {
		return err
	}

	log := logger.New(logger.WithEnvironment(cfg.App.Env, "orderwatch"))
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	w, err := a.NewOrderWatcher(local)
	if err != nil {
		_ = a.Close()
		return err
	}
	if err := w.Start(ctx); err != nil {
		_ = a.Close()
		return err
	}
	log.InfoContext(ctx, "watching orders", slog.Duration("interval", cfg.App.PollInterval))

	<-ctx.Done()
	w.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}
