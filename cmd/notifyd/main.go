// Command notifyd serves the order alert API: subscription management,
// manual sends, the storefront order webhook and delivery stats.
//
// Usage:
//
//	notifyd [flags]
//
// Flags:
//
//	-watch     also poll the orders table in-process (needs PG_CONN_URL)
//	-genkeys   print a fresh VAPID key pair and exit
//
// Configuration is read from the environment and an optional .env file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/iamusmankhan101/visioncare/internal/app"
	"github.com/iamusmankhan101/visioncare/pkg/environment"
	"github.com/iamusmankhan101/visioncare/pkg/httpserver"
	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/webpush"
	"github.com/iamusmankhan101/visioncare/pkg/poller"
	"github.com/iamusmankhan101/visioncare/pkg/requestid"
)

func main() {
	watch := flag.Bool("watch", false, "poll the orders table in-process")
	genKeys := flag.Bool("genkeys", false, "print a VAPID key pair and exit")
	flag.Parse()

	if *genKeys {
		pub, priv, err := webpush.GenerateKeys()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("VAPID_PUBLIC_KEY=%s\nVAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	if err := run(*watch); err != nil {
		slog.Error("notifyd stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run(watch bool) error {
	cfg, err := app.LoadConfigs()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithEnvironment(cfg.App.Env, cfg.App.Service),
		logger.WithContextExtractors(requestid.LoggerExtractor(), environment.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}

	var watcher *poller.Poller
	if watch {
		if watcher, err = a.NewOrderWatcher(false); err == nil {
			err = watcher.Start(ctx)
		}
		if err != nil {
			_ = a.Close()
			return err
		}
	}

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(func(ctx context.Context, log *slog.Logger) {
			if watcher != nil {
				watcher.Stop()
			}
			if err := a.Shutdown(ctx); err != nil {
				log.ErrorContext(ctx, "shutdown", logger.Error(err))
			}
		}),
	)
	return srv.Run(ctx, a.Handler())
}
