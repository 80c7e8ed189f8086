package notifications

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

// Ingest reasons.
const (
	ReasonInvalidPayload = "invalid_payload"
	ReasonDuplicate      = "duplicate"
	ReasonDispatched     = "dispatched"
	ReasonQueued         = "queued"
)

// RawEvent is an inbound business event before validation.
type RawEvent struct {
	Type       string            `json:"type"`
	BusinessID string            `json:"business_id"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Tag        string            `json:"tag,omitempty"`
	URL        string            `json:"url,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
}

func (e RawEvent) Validate() error {
	return validator.Apply(
		validator.Required("type", e.Type),
		validator.Required("business_id", e.BusinessID),
		validator.Required("title", e.Title),
		validator.Required("body", e.Body),
	)
}

func (e RawEvent) event(now time.Time) NotificationEvent {
	return NotificationEvent{
		DedupKey:   DedupKey(strings.TrimSpace(e.Type), strings.TrimSpace(e.BusinessID)),
		Type:       strings.TrimSpace(e.Type),
		BusinessID: strings.TrimSpace(e.BusinessID),
		Title:      e.Title,
		Body:       e.Body,
		Tag:        e.Tag,
		URL:        e.URL,
		Data:       e.Data,
		CreatedAt:  now,
	}
}

// IngestResult reports what happened to an event. Err carries the
// validation failure when Reason is ReasonInvalidPayload.
type IngestResult struct {
	Accepted bool    `json:"accepted"`
	Reason   string  `json:"reason"`
	DedupKey string  `json:"dedupKey,omitempty"`
	Result   *Result `json:"result,omitempty"`
	Err      error   `json:"-"`
}

// EventNotifier runs a dispatch cycle. *Notifier implements it.
type EventNotifier interface {
	Notify(ctx context.Context, event NotificationEvent) Result
}

// Ingress validates and deduplicates events before handing them to the
// notifier.
type Ingress struct {
	notifier   EventNotifier
	dedup      Deduper
	ttl        time.Duration
	background bool
	logger     *slog.Logger
	now        func() time.Time
	wg         sync.WaitGroup
}

type IngressOption func(*Ingress)

func WithDedupTTL(ttl time.Duration) IngressOption {
	return func(i *Ingress) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithBackgroundDispatch makes Ingest return as soon as the event is accepted.
// The cycle runs detached from the caller's cancellation; Wait drains it.
func WithBackgroundDispatch() IngressOption {
	return func(i *Ingress) {
		i.background = true
	}
}

func WithIngressLogger(l *slog.Logger) IngressOption {
	return func(i *Ingress) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewIngress builds an ingress. A nil deduper means an in-memory one.
func NewIngress(notifier EventNotifier, dedup Deduper, opts ...IngressOption) *Ingress {
	if dedup == nil {
		dedup = NewMemoryDeduper()
	}
	i := &Ingress{
		notifier: notifier,
		dedup:    dedup,
		ttl:      DefaultDedupTTL,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Ingest validates raw, drops it if its dedup key was seen within the TTL and
// otherwise runs a notification cycle. A deduper failure does not block
// delivery.
func (i *Ingress) Ingest(ctx context.Context, raw RawEvent) IngestResult {
	if err := raw.Validate(); err != nil {
		i.logger.LogAttrs(ctx, slog.LevelWarn, "rejected event",
			logger.EventType(raw.Type),
			logger.Error(err),
		)
		return IngestResult{Reason: ReasonInvalidPayload, Err: errors.Join(ErrInvalidPayload, err)}
	}

	event := raw.event(i.now())
	fresh, err := i.dedup.MarkIfNew(ctx, event.DedupKey, i.ttl)
	if err != nil {
		i.logger.LogAttrs(ctx, slog.LevelWarn, "dedup check failed, dispatching anyway",
			logger.DedupKey(event.DedupKey),
			logger.Error(err),
		)
		fresh = true
	}
	if !fresh {
		i.logger.LogAttrs(ctx, slog.LevelInfo, "duplicate event ignored",
			logger.DedupKey(event.DedupKey),
		)
		return IngestResult{Accepted: true, Reason: ReasonDuplicate, DedupKey: event.DedupKey}
	}

	if i.background {
		i.wg.Add(1)
		go func(ctx context.Context) {
			defer i.wg.Done()
			i.notifier.Notify(ctx, event)
		}(context.WithoutCancel(ctx))
		return IngestResult{Accepted: true, Reason: ReasonQueued, DedupKey: event.DedupKey}
	}

	res := i.notifier.Notify(ctx, event)
	return IngestResult{Accepted: true, Reason: ReasonDispatched, DedupKey: event.DedupKey, Result: &res}
}

// Wait blocks until every background dispatch has finished.
func (i *Ingress) Wait() {
	i.wg.Wait()
}
