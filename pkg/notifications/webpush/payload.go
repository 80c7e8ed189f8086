package webpush

import (
	"encoding/json"

	"github.com/iamusmankhan101/visioncare/pkg/notifications"
)

// Notification actions shown by the browser.
const (
	ActionView    = "view"
	ActionDismiss = "dismiss"
)

type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// Payload is the JSON document the service worker passes to
// showNotification.
type Payload struct {
	Title              string            `json:"title"`
	Body               string            `json:"body"`
	Icon               string            `json:"icon"`
	Badge              string            `json:"badge"`
	Tag                string            `json:"tag"`
	RequireInteraction bool              `json:"requireInteraction"`
	Data               map[string]string `json:"data"`
	Actions            []Action          `json:"actions"`
}

func NewPayload(msg notifications.Message) Payload {
	data := msg.Data
	if data == nil {
		data = map[string]string{}
	}
	return Payload{
		Title:              msg.Title,
		Body:               msg.Body,
		Icon:               msg.Icon,
		Badge:              msg.Badge,
		Tag:                msg.Tag,
		RequireInteraction: msg.RequireInteraction,
		Data:               data,
		Actions: []Action{
			{Action: ActionView, Title: "View Details"},
			{Action: ActionDismiss, Title: "Dismiss"},
		},
	}
}

func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}
