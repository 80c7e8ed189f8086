package poller

import (
	"context"
	"strings"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/notifications"
)

// Record is one row of the watched record store.
type Record struct {
	ID        string
	Number    string
	Customer  string
	Total     *float64
	CreatedAt time.Time
}

// RecordSource is the live record store the poller compares against.
type RecordSource interface {
	Count(ctx context.Context) (int64, error)
	// Latest returns the n most recent records, most recent first.
	Latest(ctx context.Context, n int) ([]Record, error)
}

// LocalNotification is what the poller emits for each new record.
type LocalNotification struct {
	Title              string
	Body               string
	Tag                string
	Icon               string
	Badge              string
	RequireInteraction bool
	Data               map[string]string
	Record             Record
}

// Formatter turns a record into a notification.
type Formatter func(Record) LocalNotification

// OrderFormatter renders "New Order #n" notifications tagged per order.
func OrderFormatter(r Record) LocalNotification {
	number := r.Number
	if number == "" {
		number = r.ID
	}
	customer := strings.TrimSpace(r.Customer)
	if customer == "" {
		customer = "Customer"
	}
	amount := notifications.FormatAmount(r.Total)

	return LocalNotification{
		Title:              "New Order #" + number,
		Body:               customer + " placed an order for " + amount,
		Tag:                "order-" + r.ID,
		Icon:               notifications.DefaultIcon,
		Badge:              notifications.DefaultBadge,
		RequireInteraction: true,
		Data: map[string]string{
			"orderId":      r.ID,
			"orderNumber":  number,
			"customerName": customer,
			"total":        amount,
		},
		Record: r,
	}
}

// OrderPlaced converts the record to the webhook shape so the ingress can
// dedup it against webhook deliveries of the same order.
func (r Record) OrderPlaced() notifications.OrderPlaced {
	customer := strings.TrimSpace(r.Customer)
	if customer == "" {
		customer = "Customer"
	}
	return notifications.OrderPlaced{
		ID:           notifications.FlexString(r.ID),
		OrderNumber:  notifications.FlexString(r.Number),
		CustomerName: customer,
		Total:        r.Total,
	}
}
