package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iamusmankhan101/visioncare/binder"
	"github.com/iamusmankhan101/visioncare/handler"
	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/webhook"
)

const DefaultSignatureMaxAge = 5 * time.Minute

// WebhookService receives storefront events.
type WebhookService struct {
	ingress      Ingester
	adminURL     string
	secret       string
	maxAge       time.Duration
	log          *slog.Logger
	errorHandler handler.ErrorHandler[handler.Context]
}

type WebhookOption func(*WebhookService)

// WithSignatureSecret requires X-Webhook-* HMAC headers on every request.
func WithSignatureSecret(secret string, maxAge time.Duration) WebhookOption {
	return func(s *WebhookService) {
		s.secret = secret
		if maxAge > 0 {
			s.maxAge = maxAge
		}
	}
}

// WithAdminURL sets the page opened when an order notification is clicked.
func WithAdminURL(url string) WebhookOption {
	return func(s *WebhookService) {
		if url != "" {
			s.adminURL = url
		}
	}
}

func WithWebhookLogger(l *slog.Logger) WebhookOption {
	return func(s *WebhookService) {
		if l != nil {
			s.log = l
		}
	}
}

func NewWebhookService(ingress Ingester, opts ...WebhookOption) *WebhookService {
	s := &WebhookService{
		ingress:  ingress,
		adminURL: notifications.DefaultAdminURL,
		maxAge:   DefaultSignatureMaxAge,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = handler.NewErrorHandler(s.log)
	return s
}

func (s *WebhookService) Handle() http.Handler {
	r := chi.NewRouter()

	if s.secret != "" {
		r.Use(webhook.VerifyMiddleware(s.secret, s.maxAge, s.rejectSignature))
	}

	r.Post("/order-placed", handler.Wrap(s.orderPlaced,
		handler.WithBinder[handler.Context, notifications.OrderPlaced](binder.BindJSON(binder.AllowUnknownFields())),
		handler.WithErrorHandler[handler.Context, notifications.OrderPlaced](s.errorHandler),
	))

	return r
}

func (s *WebhookService) rejectSignature(w http.ResponseWriter, r *http.Request, err error) {
	s.log.WarnContext(r.Context(), "webhook signature rejected",
		logger.Error(err),
		logger.Component("api"),
	)
	_ = handler.JSONError(handler.ErrUnauthorized).Render(w, r)
}

// WebhookResponse acknowledges an event. Per-subscription outcomes are kept
// out of it; they surface through the stats endpoint.
type WebhookResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
	DedupKey string `json:"dedupKey,omitempty"`
}

func (s *WebhookService) orderPlaced(ctx handler.Context, order notifications.OrderPlaced) handler.Response {
	res := s.ingress.Ingest(ctx, order.RawEvent(s.adminURL))
	if !res.Accepted {
		return handler.JSONError(res.Err)
	}
	return handler.JSON(WebhookResponse{
		Accepted: true,
		Reason:   res.Reason,
		DedupKey: res.DedupKey,
	})
}
