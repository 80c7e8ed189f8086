package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iamusmankhan101/visioncare/binder"
	"github.com/iamusmankhan101/visioncare/handler"
	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

const (
	EventManual = "manual"
	EventTest   = "test"
)

// MaxDataBytes bounds the stringified data keys and values of a broadcast.
// FCM rejects messages over 4096 bytes, notification fields included.
const MaxDataBytes = 2048

// NotifyService lets an admin broadcast notifications and read delivery stats.
type NotifyService struct {
	registry     Registry
	notifier     Notifier
	log          *slog.Logger
	now          func() time.Time
	errorHandler handler.ErrorHandler[handler.Context]
}

func NewNotifyService(registry Registry, notifier Notifier, log *slog.Logger) *NotifyService {
	if log == nil {
		log = logger.Discard()
	}
	return &NotifyService{
		registry:     registry,
		notifier:     notifier,
		log:          log,
		now:          time.Now,
		errorHandler: handler.NewErrorHandler(log),
	}
}

func (s *NotifyService) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/send", handler.Wrap(s.send,
		handler.WithBinder[handler.Context, SendRequest](binder.BindJSON()),
		handler.WithErrorHandler[handler.Context, SendRequest](s.errorHandler),
	))
	r.Post("/test", handler.Wrap(s.test,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))
	r.Get("/stats", handler.Wrap(s.stats,
		handler.WithErrorHandler[handler.Context, struct{}](s.errorHandler),
	))

	return r
}

// SendRequest is an ad-hoc broadcast. Data values of any JSON type are
// stringified.
type SendRequest struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Tag   string         `json:"tag"`
	URL   string         `json:"url"`
	Data  map[string]any `json:"data"`
}

func (req SendRequest) Validate() error {
	return validator.Apply(
		validator.Required("title", req.Title),
		validator.Required("body", req.Body),
		validator.MaxLen("title", req.Title, 200),
		validator.MaxLen("body", req.Body, 2000),
		validator.Rule{
			Check: func() bool { return dataSize(stringify(req.Data)) <= MaxDataBytes },
			Error: validator.ValidationError{Field: "data", Message: fmt.Sprintf("must be at most %d bytes", MaxDataBytes)},
		},
	)
}

func dataSize(data map[string]string) int {
	n := 0
	for k, v := range data {
		n += len(k) + len(v)
	}
	return n
}

// SendResponse summarizes one dispatch cycle.
type SendResponse struct {
	Success            bool                            `json:"success"`
	Message            string                          `json:"message"`
	Sent               int                             `json:"sent"`
	Failed             int                             `json:"failed"`
	Pruned             int                             `json:"pruned"`
	Attempts           []notifications.DeliveryAttempt `json:"attempts"`
	TotalSubscriptions int                             `json:"totalSubscriptions"`
}

func (s *NotifyService) send(ctx handler.Context, req SendRequest) handler.Response {
	if err := req.Validate(); err != nil {
		return handler.JSONError(err)
	}
	return s.dispatch(ctx, notifications.NotificationEvent{
		Type:  EventManual,
		Title: req.Title,
		Body:  req.Body,
		Tag:   req.Tag,
		URL:   req.URL,
		Data:  stringify(req.Data),
	})
}

func (s *NotifyService) test(ctx handler.Context, _ struct{}) handler.Response {
	now := s.now()
	return s.dispatch(ctx, notifications.NotificationEvent{
		Type:  EventTest,
		Title: "Test Notification",
		Body:  "This is a test notification from the store admin",
		Tag:   "test",
		Data: map[string]string{
			"test":      "true",
			"timestamp": now.UTC().Format(time.RFC3339),
		},
	})
}

func (s *NotifyService) dispatch(ctx handler.Context, event notifications.NotificationEvent) handler.Response {
	id := uuid.NewString()
	event.BusinessID = id
	event.DedupKey = notifications.DedupKey(event.Type, id)
	event.CreatedAt = s.now()

	res := s.notifier.Notify(ctx, event)

	total := 0
	if counts, err := s.registry.CountByChannel(ctx); err == nil {
		for _, n := range counts {
			total += n
		}
	} else {
		s.log.WarnContext(ctx, "failed to count subscriptions", logger.Error(err), logger.Component("api"))
	}

	attempts := res.Attempts
	if attempts == nil {
		attempts = []notifications.DeliveryAttempt{}
	}
	return handler.JSON(SendResponse{
		Success:            true,
		Message:            fmt.Sprintf("Notification sent to %d subscribers", res.Sent),
		Sent:               res.Sent,
		Failed:             res.Failed,
		Pruned:             res.Pruned,
		Attempts:           attempts,
		TotalSubscriptions: total,
	})
}

// StatsResponse is the admin stats view.
type StatsResponse struct {
	Subscriptions      map[notifications.Channel]int   `json:"subscriptions"`
	TotalSubscriptions int                             `json:"totalSubscriptions"`
	Outcomes           map[notifications.Outcome]int   `json:"outcomes"`
	Dispatches         int                             `json:"dispatches"`
	Pruned             int                             `json:"pruned"`
	Recent             []notifications.DispatchSummary `json:"recent"`
	LastDispatchAt     *time.Time                      `json:"lastDispatchAt,omitempty"`
}

func (s *NotifyService) stats(ctx handler.Context, _ struct{}) handler.Response {
	counts, err := s.registry.CountByChannel(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to count subscriptions", logger.Error(err), logger.Component("api"))
		return handler.JSONError(handler.ErrInternalServerError)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	snap := s.notifier.Stats()
	recent := snap.Recent
	if recent == nil {
		recent = []notifications.DispatchSummary{}
	}

	return handler.JSON(StatsResponse{
		Subscriptions:      counts,
		TotalSubscriptions: total,
		Outcomes:           snap.Outcomes,
		Dispatches:         snap.Dispatches,
		Pruned:             snap.Pruned,
		Recent:             recent,
		LastDispatchAt:     snap.LastDispatchAt,
	})
}

func stringify(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, raw := range data {
		switch v := raw.(type) {
		case nil:
			continue
		case string:
			out[k] = v
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
