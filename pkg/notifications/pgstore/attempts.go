package pgstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iamusmankhan101/visioncare/pkg/notifications"
)

var attemptColumns = []string{
	"dedup_key", "event_type", "business_id",
	"subscription_id", "channel", "endpoint_key",
	"gateway", "outcome", "error", "fallbacks",
	"attempted_at", "duration_ms",
}

// AttemptLog appends delivery attempts to the delivery_attempts table.
type AttemptLog struct {
	db DB
}

func NewAttemptLog(db DB) *AttemptLog {
	return &AttemptLog{db: db}
}

// Record writes every attempt of one dispatch with a single COPY.
func (l *AttemptLog) Record(ctx context.Context, event notifications.NotificationEvent, attempts []notifications.DeliveryAttempt) error {
	if len(attempts) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(attempts))
	for _, a := range attempts {
		fallbacks, err := json.Marshal(a.Fallbacks)
		if err != nil {
			return fmt.Errorf("pgstore: encode fallbacks: %w", err)
		}
		rows = append(rows, []any{
			event.DedupKey, event.Type, event.BusinessID,
			a.SubscriptionID, string(a.Channel), a.EndpointKey,
			a.Gateway, string(a.Outcome), a.Error, string(fallbacks),
			a.AttemptedAt, a.Duration.Milliseconds(),
		})
	}

	if _, err := l.db.CopyFrom(ctx, pgx.Identifier{"delivery_attempts"}, attemptColumns, pgx.CopyFromRows(rows)); err != nil {
		return wrap("record attempts", err)
	}
	return nil
}
