package fcm_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/fcm"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

var errUnregistered = errors.New("registration-token-not-registered")

func classifier(err error) bool {
	return errors.Is(err, errUnregistered)
}

func TestAdapter_Send(t *testing.T) {
	t.Parallel()

	sub := notifications.Subscription{
		ID:          "sub-1",
		Channel:     notifications.ChannelCloudMessaging,
		EndpointKey: "device-token",
	}
	msg := notifications.Message{
		Title: "New Order #ORD-1",
		Body:  "Ali placed an order",
		Tag:   "new-order",
		URL:   "/admin/mobile",
		Data:  map[string]string{"orderNumber": "ORD-1"},
	}

	tests := []struct {
		name    string
		err     error
		outcome notifications.Outcome
	}{
		{name: "accepted", outcome: notifications.OutcomeSent},
		{name: "unregistered token", err: errUnregistered, outcome: notifications.OutcomePermanentFailure},
		{name: "quota exceeded", err: errors.New("quota-exceeded"), outcome: notifications.OutcomeTransientFailure},
		{name: "deadline", err: context.DeadlineExceeded, outcome: notifications.OutcomeTransientFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sender := &MockSender{}
			sender.On("Send", mock.Anything, mock.MatchedBy(func(m *messaging.Message) bool {
				return m.Token == "device-token" && m.Notification.Title == msg.Title
			})).Return("projects/p/messages/1", tt.err)

			a := fcm.New(sender, fcm.WithClassifier(classifier), fcm.WithLogger(logger.Discard()))
			got := a.Send(context.Background(), sub, msg)

			assert.Equal(t, tt.outcome, got.Outcome)
			assert.Equal(t, "fcm", got.Gateway)
			sender.AssertExpectations(t)
		})
	}
}

func TestIsPermanent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "network", err: errors.New("network unreachable")},
		{name: "payload too large", err: errors.New("invalid-argument: android message is too big")},
		{name: "bad data key", err: errors.New("invalid-argument: data key \"from\" is reserved")},
		{name: "token text outside a firebase error", err: errors.New("the registration token is not a valid FCM registration token")},
		{name: "wrapped deadline", err: fmt.Errorf("send: %w", context.DeadlineExceeded)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.False(t, fcm.IsPermanent(tt.err))
		})
	}
}

// A message the gateway rejects must not cost the subscriber its token.
func TestAdapter_MessageErrorsKeepToken(t *testing.T) {
	t.Parallel()

	sub := notifications.Subscription{ID: "sub-1", Channel: notifications.ChannelCloudMessaging, EndpointKey: "device-token"}
	sender := &MockSender{}
	sender.On("Send", mock.Anything, mock.Anything).
		Return("", errors.New("invalid-argument: message payload exceeds 4096 bytes")).Twice()

	a := fcm.New(sender, fcm.WithLogger(logger.Discard()))
	for range 2 {
		got := a.Send(context.Background(), sub, notifications.Message{Title: "t", Body: "b"})
		assert.Equal(t, notifications.OutcomeTransientFailure, got.Outcome)
		assert.False(t, got.Permanent())
	}
	sender.AssertExpectations(t)
}

func TestNewMessage(t *testing.T) {
	t.Parallel()

	m := fcm.NewMessage("tok", notifications.Message{
		Title: "t",
		Body:  "b",
		Tag:   "new-order",
		URL:   "/admin/mobile",
		Data:  map[string]string{"url": "/admin/mobile"},
	})

	assert.Equal(t, "tok", m.Token)
	require.NotNil(t, m.Android)
	assert.Equal(t, "high", m.Android.Priority)
	assert.Equal(t, "order_notifications", m.Android.Notification.ChannelID)
	require.NotNil(t, m.APNS.Payload.Aps.Badge)
	assert.Equal(t, 1, *m.APNS.Payload.Aps.Badge)
	assert.Equal(t, "default", m.APNS.Payload.Aps.Sound)
	assert.Equal(t, "/admin/mobile", m.Webpush.FCMOptions.Link)
	assert.Equal(t, "/admin/mobile", m.Data["url"])
}

func TestNewClient_NotConfigured(t *testing.T) {
	t.Parallel()
	_, err := fcm.NewClient(context.Background(), fcm.Config{})
	assert.ErrorIs(t, err, fcm.ErrNotConfigured)
}
