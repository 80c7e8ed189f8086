package webpush

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
)

const gatewayName = "vapid"

var (
	ErrMissingKeys    = errors.New("webpush: subscription has no p256dh/auth keys")
	ErrNotConfigured  = errors.New("webpush: VAPID keys are not configured")
	ErrUnexpectedCode = errors.New("webpush: push service rejected the request")
)

// Adapter delivers notifications with VAPID-signed Web Push requests.
type Adapter struct {
	cfg        Config
	httpClient webpush.HTTPClient
	logger     *slog.Logger
}

type Option func(*Adapter)

// WithHTTPClient replaces the client used to reach push services.
func WithHTTPClient(c webpush.HTTPClient) Option {
	return func(a *Adapter) {
		if c != nil {
			a.httpClient = c
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

func New(cfg Config, opts ...Option) (*Adapter, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	a := &Adapter{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// PublicKey is handed to browsers as the applicationServerKey.
func (a *Adapter) PublicKey() string {
	return a.cfg.PublicKey
}

// Send pushes msg to the subscription's endpoint. 404 and 410 mean the
// subscription is gone; every other failure is transient.
func (a *Adapter) Send(ctx context.Context, sub notifications.Subscription, msg notifications.Message) notifications.DeliveryAttempt {
	attempt := notifications.NewAttempt(sub, gatewayName)

	p256dh, auth := sub.Credential(notifications.CredentialP256dh), sub.Credential(notifications.CredentialAuth)
	if p256dh == "" || auth == "" {
		return attempt.Fail(notifications.Permanent(ErrMissingKeys))
	}

	body, err := NewPayload(msg).Marshal()
	if err != nil {
		return attempt.Fail(notifications.Transient(err))
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.EndpointKey,
		Keys:     webpush.Keys{P256dh: p256dh, Auth: auth},
	}, &webpush.Options{
		HTTPClient:      a.httpClient,
		Subscriber:      a.cfg.Subject,
		VAPIDPublicKey:  a.cfg.PublicKey,
		VAPIDPrivateKey: a.cfg.PrivateKey,
		TTL:             int(a.cfg.TTL.Seconds()),
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		return attempt.Fail(notifications.Transient(err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if err := classifyStatus(resp.StatusCode); err != nil {
		a.logger.LogAttrs(ctx, slog.LevelDebug, "push service rejected notification",
			logger.Endpoint(sub.EndpointKey),
			slog.Int("status_code", resp.StatusCode),
		)
		return attempt.Fail(err)
	}
	return attempt.Succeed()
}

func classifyStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound, code == http.StatusGone:
		return notifications.Permanent(fmt.Errorf("%w: status %d", ErrUnexpectedCode, code))
	default:
		return notifications.Transient(fmt.Errorf("%w: status %d", ErrUnexpectedCode, code))
	}
}

// GenerateKeys returns a fresh VAPID key pair.
func GenerateKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
