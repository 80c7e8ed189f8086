package webpush

import (
	"errors"
	"strings"
)

// MessageNotificationClicked is the message type posted to an already-open
// client when the user clicks a notification.
const MessageNotificationClicked = "NOTIFICATION_CLICKED"

// ClickMessage is posted from the delivery surface to the foreground app.
type ClickMessage struct {
	Type string            `json:"type"`
	Data map[string]string `json:"data"`
}

// Client is an open application window.
type Client interface {
	URL() string
	Focus() error
	PostMessage(ClickMessage) error
}

// Clients gives access to the application's windows.
type Clients interface {
	MatchAll() []Client
	OpenWindow(url string) error
}

// ClickResult reports what HandleClick did.
type ClickResult string

const (
	ClickIgnored ClickResult = "ignored"
	ClickFocused ClickResult = "focused"
	ClickOpened  ClickResult = "opened"
)

var ErrNoTarget = errors.New("webpush: notification has no url to open")

// HandleClick implements the click contract: the dismiss action does nothing;
// otherwise an open client on the same origin path is focused and sent a
// NOTIFICATION_CLICKED message, or a new client is opened at data["url"].
func HandleClick(clients Clients, action string, data map[string]string) (ClickResult, error) {
	if action == ActionDismiss {
		return ClickIgnored, nil
	}

	target := data["url"]
	for _, c := range clients.MatchAll() {
		if target != "" && !strings.Contains(c.URL(), target) {
			continue
		}
		if err := c.Focus(); err != nil {
			return "", err
		}
		if err := c.PostMessage(ClickMessage{Type: MessageNotificationClicked, Data: data}); err != nil {
			return "", err
		}
		return ClickFocused, nil
	}

	if target == "" {
		return "", ErrNoTarget
	}
	if err := clients.OpenWindow(target); err != nil {
		return "", err
	}
	return ClickOpened, nil
}
