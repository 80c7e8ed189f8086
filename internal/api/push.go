package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iamusmankhan101/visioncare/binder"
	"github.com/iamusmankhan101/visioncare/handler"
	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

// Web Push key sizes: uncompressed P-256 point and auth secret.
const (
	p256dhSize = 65
	authSize   = 16
)

// PushService handles subscription management.
type PushService struct {
	registry     Registry
	publicKey    string
	log          *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewPushService(registry Registry, publicKey string, log *slog.Logger) *PushService {
	if log == nil {
		log = logger.Discard()
	}
	return &PushService{
		registry:     registry,
		publicKey:    publicKey,
		log:          log,
		errorHandler: handler.NewErrorHandler(log),
	}
}

func (s *PushService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/public-key", handler.Wrap(s.publicKeyHandler,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))
	r.Post("/subscribe", handler.Wrap(s.subscribe,
		handler.WithBinder[handler.Context, SubscribeRequest](binder.BindJSON(binder.AllowUnknownFields())),
		handler.WithErrorHandler[handler.Context, SubscribeRequest](s.errorHandler),
	))
	r.Post("/unsubscribe", handler.Wrap(s.unsubscribe,
		handler.WithBinder[handler.Context, UnsubscribeRequest](binder.BindJSON(binder.AllowUnknownFields())),
		handler.WithErrorHandler[handler.Context, UnsubscribeRequest](s.errorHandler),
	))

	return r
}

type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

func (s *PushService) publicKeyHandler(ctx handler.Context, _ struct{}) handler.Response {
	if s.publicKey == "" {
		return handler.JSONError(handler.ErrServiceUnavailable)
	}
	return handler.JSON(PublicKeyResponse{PublicKey: s.publicKey})
}

// SubscribeRequest is either a browser PushSubscription
// ({endpoint, keys{p256dh, auth}}) or a generic channel registration
// ({channel, endpointKey, credentials}).
type SubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`

	Channel     string            `json:"channel"`
	EndpointKey string            `json:"endpointKey"`
	Credentials map[string]string `json:"credentials"`
}

// normalize resolves the request to a channel, endpoint key and credentials.
func (req SubscribeRequest) normalize() (notifications.Channel, string, map[string]string, error) {
	if strings.TrimSpace(req.Endpoint) != "" && (req.Channel == "" || req.Channel == string(notifications.ChannelWebPush)) {
		creds := map[string]string{
			notifications.CredentialP256dh: req.Keys.P256dh,
			notifications.CredentialAuth:   req.Keys.Auth,
		}
		err := validator.Apply(
			validator.ValidURLWithScheme("endpoint", req.Endpoint, "https"),
			validator.ValidBase64URL("keys.p256dh", req.Keys.P256dh, p256dhSize),
			validator.ValidBase64URL("keys.auth", req.Keys.Auth, authSize),
		)
		return notifications.ChannelWebPush, strings.TrimSpace(req.Endpoint), creds, err
	}

	channel, err := notifications.ParseChannel(req.Channel)
	if err != nil {
		return "", "", nil, validator.ValidationErrors{{Field: "channel", Message: "must be one of: web_push, cloud_messaging, business_messaging, email"}}
	}

	key := strings.TrimSpace(req.EndpointKey)
	creds := req.Credentials
	if creds == nil {
		creds = map[string]string{}
	}

	rules := []validator.Rule{validator.Required("endpointKey", key)}
	switch channel {
	case notifications.ChannelWebPush:
		rules = append(rules,
			validator.ValidURLWithScheme("endpointKey", key, "https"),
			validator.ValidBase64URL("credentials.p256dh", creds[notifications.CredentialP256dh], p256dhSize),
			validator.ValidBase64URL("credentials.auth", creds[notifications.CredentialAuth], authSize),
		)
	case notifications.ChannelCloudMessaging:
		rules = append(rules, validator.MaxLen("endpointKey", key, 4096))
	case notifications.ChannelBusinessMessaging:
		key = notifications.NormalizeEndpoint(channel, key)
		rules = append(rules, validator.ValidPhone("endpointKey", key))
	case notifications.ChannelEmail:
		key = notifications.NormalizeEndpoint(channel, key)
		rules = append(rules, validator.ValidEmail("endpointKey", key))
	}
	return channel, key, creds, validator.Apply(rules...)
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Removed *bool  `json:"removed,omitempty"`
}

func (s *PushService) subscribe(ctx handler.Context, req SubscribeRequest) handler.Response {
	channel, key, creds, err := req.normalize()
	if err != nil {
		return handler.JSONError(err)
	}

	sub, err := s.registry.Register(ctx, channel, key, creds)
	if err != nil {
		return s.fail(ctx, "failed to register subscription", err)
	}
	return handler.JSON(SuccessResponse{Success: true, ID: sub.ID})
}

// UnsubscribeRequest accepts endpointKey, or endpoint as sent by browsers.
// Channel defaults to web_push.
type UnsubscribeRequest struct {
	EndpointKey string `json:"endpointKey"`
	Endpoint    string `json:"endpoint"`
	Channel     string `json:"channel"`
}

func (s *PushService) unsubscribe(ctx handler.Context, req UnsubscribeRequest) handler.Response {
	key := strings.TrimSpace(req.EndpointKey)
	if key == "" {
		key = strings.TrimSpace(req.Endpoint)
	}

	channel := notifications.ChannelWebPush
	if req.Channel != "" {
		c, err := notifications.ParseChannel(req.Channel)
		if err != nil {
			return handler.JSONError(validator.ValidationErrors{{Field: "channel", Message: "is not a known channel"}})
		}
		channel = c
	}
	key = notifications.NormalizeEndpoint(channel, key)
	if err := validator.Apply(validator.Required("endpointKey", key)); err != nil {
		return handler.JSONError(err)
	}

	removed, err := s.registry.Remove(ctx, channel, key)
	if err != nil {
		return s.fail(ctx, "failed to remove subscription", err)
	}
	return handler.JSON(SuccessResponse{Success: true, Removed: &removed})
}

// fail maps registry errors to client errors where the input was at fault
// and logs the rest.
func (s *PushService) fail(ctx handler.Context, msg string, err error) handler.Response {
	switch {
	case errors.Is(err, notifications.ErrInvalidChannel):
		return handler.JSONError(validator.ValidationErrors{{Field: "channel", Message: "is not a known channel"}})
	case errors.Is(err, notifications.ErrEmptyEndpoint):
		return handler.JSONError(validator.ValidationErrors{{Field: "endpointKey", Message: "is required"}})
	}
	s.log.ErrorContext(ctx, msg, logger.Error(err), logger.Component("api"))
	return handler.JSONError(handler.ErrInternalServerError)
}
