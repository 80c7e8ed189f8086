package fcm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
)

const (
	gatewayName      = "fcm"
	androidChannelID = "order_notifications"
	defaultSound     = "default"
)

var ErrNotConfigured = errors.New("fcm: credentials are not configured")

type Config struct {
	CredentialsFile string `env:"FCM_CREDENTIALS_FILE"`
	ProjectID       string `env:"FCM_PROJECT_ID"`
}

func (c Config) Enabled() bool {
	return c.CredentialsFile != ""
}

// Sender is the subset of *messaging.Client the adapter needs.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// NewClient initializes a Firebase app from the service account file and
// returns its messaging client.
func NewClient(ctx context.Context, cfg Config) (*messaging.Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	var fbcfg *firebase.Config
	if cfg.ProjectID != "" {
		fbcfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbcfg, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("fcm: init app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("fcm: messaging client: %w", err)
	}
	return client, nil
}

// IsPermanent reports whether err means the registration token will never
// work again. Other invalid-argument errors, such as an oversized payload,
// are about the message and leave the token alone.
func IsPermanent(err error) bool {
	return messaging.IsUnregistered(err) ||
		messaging.IsSenderIDMismatch(err) ||
		isInvalidToken(err)
}

// FCM reports a malformed token as INVALID_ARGUMENT with no dedicated error
// code, so the message text is the only discriminator.
func isInvalidToken(err error) bool {
	return errorutils.IsInvalidArgument(err) &&
		strings.Contains(strings.ToLower(err.Error()), "registration token")
}

// Adapter delivers notifications through Firebase Cloud Messaging. The
// subscription's EndpointKey is the device registration token.
type Adapter struct {
	sender    Sender
	permanent func(error) bool
	logger    *slog.Logger
}

type Option func(*Adapter)

// WithClassifier overrides how send errors are split into permanent and
// transient.
func WithClassifier(fn func(error) bool) Option {
	return func(a *Adapter) {
		if fn != nil {
			a.permanent = fn
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

func New(sender Sender, opts ...Option) *Adapter {
	a := &Adapter{
		sender:    sender,
		permanent: IsPermanent,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Send(ctx context.Context, sub notifications.Subscription, msg notifications.Message) notifications.DeliveryAttempt {
	attempt := notifications.NewAttempt(sub, gatewayName)

	id, err := a.sender.Send(ctx, NewMessage(sub.EndpointKey, msg))
	if err != nil {
		if a.permanent(err) {
			return attempt.Fail(notifications.Permanent(err))
		}
		return attempt.Fail(notifications.Transient(err))
	}

	a.logger.LogAttrs(ctx, slog.LevelDebug, "fcm message accepted",
		logger.SubscriptionID(sub.ID),
		slog.String("message_id", id),
	)
	return attempt.Succeed()
}

// NewMessage builds the FCM message: high priority on Android with the
// order_notifications channel, sound and badge on APNs.
func NewMessage(token string, msg notifications.Message) *messaging.Message {
	badge := 1
	data := make(map[string]string, len(msg.Data))
	for k, v := range msg.Data {
		data[k] = v
	}

	m := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     defaultSound,
				ChannelID: androidChannelID,
				Tag:       msg.Tag,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: defaultSound,
					Badge: &badge,
				},
			},
		},
	}
	if msg.URL != "" {
		m.Webpush = &messaging.WebpushConfig{
			FCMOptions: &messaging.WebpushFCMOptions{Link: msg.URL},
		}
	}
	return m
}
