package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iamusmankhan101/visioncare/pkg/email"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/fcm"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/mail"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/webpush"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/whatsapp"
)

// buildAdapters creates an adapter for every channel with credentials. In
// mock mode the remaining channels log instead of sending. It also returns
// the VAPID public key, empty when web push is not configured.
func buildAdapters(ctx context.Context, cfg Configs, log *slog.Logger) (map[notifications.Channel]notifications.Adapter, string, error) {
	adapters := make(map[notifications.Channel]notifications.Adapter, 4)
	var publicKey string

	if cfg.WebPush.Enabled() {
		wp, err := webpush.New(cfg.WebPush, webpush.WithLogger(log))
		if err != nil {
			return nil, "", err
		}
		adapters[notifications.ChannelWebPush] = wp
		publicKey = wp.PublicKey()
	}

	if cfg.FCM.Enabled() {
		client, err := fcm.NewClient(ctx, cfg.FCM)
		if err != nil {
			return nil, "", err
		}
		adapters[notifications.ChannelCloudMessaging] = fcm.New(client, fcm.WithLogger(log))
	}

	// The manual gateway keeps the chain deliverable without credentials.
	if cfg.WhatsApp.TwilioEnabled() || cfg.WhatsApp.CloudAPIEnabled() || !cfg.App.Mock {
		adapters[notifications.ChannelBusinessMessaging] = whatsapp.NewChain(log,
			whatsapp.NewTwilioGateway(cfg.WhatsApp),
			whatsapp.NewCloudAPIGateway(cfg.WhatsApp),
			whatsapp.NewManualGateway(log),
		)
	}

	if cfg.Email.Enabled() {
		sender, err := email.NewPostmarkClient(cfg.Email)
		if err != nil {
			return nil, "", fmt.Errorf("email: %w", err)
		}
		adapters[notifications.ChannelEmail] = mail.New(sender, mail.WithBaseURL(cfg.App.PublicBaseURL))
	}

	if cfg.App.Mock {
		mock := notifications.NewLogAdapter(log)
		for _, ch := range notifications.Channels() {
			if _, ok := adapters[ch]; !ok {
				adapters[ch] = mock
			}
		}
	}
	return adapters, publicKey, nil
}
