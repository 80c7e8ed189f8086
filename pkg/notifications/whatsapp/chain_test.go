package whatsapp_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/notifications/whatsapp"
)

type MockGateway struct {
	mock.Mock
	name       string
	configured bool
}

func newGateway(name string, configured bool) *MockGateway {
	return &MockGateway{name: name, configured: configured}
}

func (m *MockGateway) Name() string     { return m.name }
func (m *MockGateway) Configured() bool { return m.configured }
func (m *MockGateway) Send(ctx context.Context, to, text string) error {
	return m.Called(ctx, to, text).Error(0)
}

// MockManual stands in for the manual relay.
type MockManual struct {
	mock.Mock
}

func (m *MockManual) Name() string     { return "manual" }
func (m *MockManual) Configured() bool { return true }
func (m *MockManual) LastResort() bool { return true }
func (m *MockManual) Send(ctx context.Context, to, text string) error {
	return m.Called(ctx, to, text).Error(0)
}

func subscriber() notifications.Subscription {
	return notifications.Subscription{
		ID:          "sub-wa",
		Channel:     notifications.ChannelBusinessMessaging,
		EndpointKey: "whatsapp:+92 300 1234567",
		Credentials: map[string]string{"name": "Usman"},
	}
}

var msg = notifications.Message{Title: "New Order #ORD-1", Body: "Ali placed an order for PKR 2500", URL: "/admin/mobile"}

func TestChain_Send(t *testing.T) {
	t.Parallel()

	t.Run("first gateway sends", func(t *testing.T) {
		t.Parallel()
		tw := newGateway("twilio", true)
		tw.On("Send", mock.Anything, "+923001234567", mock.Anything).Return(nil)
		cloud := newGateway("cloud_api", true)

		got := whatsapp.NewChain(logger.Discard(), tw, cloud).Send(context.Background(), subscriber(), msg)

		assert.Equal(t, notifications.OutcomeSent, got.Outcome)
		assert.Equal(t, "twilio", got.Gateway)
		assert.Empty(t, got.Fallbacks)
		cloud.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("falls back in order on transient failure", func(t *testing.T) {
		t.Parallel()
		tw := newGateway("twilio", true)
		tw.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(notifications.Transient(errors.New("503")))
		cloud := newGateway("cloud_api", true)
		cloud.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(notifications.Transient(errors.New("401")))
		manual := whatsapp.NewManualGateway(logger.Discard())

		got := whatsapp.NewChain(logger.Discard(), tw, cloud, manual).Send(context.Background(), subscriber(), msg)

		assert.Equal(t, notifications.OutcomeSent, got.Outcome)
		assert.Equal(t, "manual", got.Gateway)
		require.Len(t, got.Fallbacks, 2)
		assert.Equal(t, "twilio", got.Fallbacks[0].Gateway)
		assert.Equal(t, "cloud_api", got.Fallbacks[1].Gateway)
		assert.Equal(t, notifications.OutcomeTransientFailure, got.Fallbacks[0].Outcome)
	})

	t.Run("permanent failure skips remote gateways but still relays manually", func(t *testing.T) {
		t.Parallel()
		tw := newGateway("twilio", true)
		tw.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(notifications.Permanent(errors.New("21211"))).Once()
		cloud := newGateway("cloud_api", true)
		manual := &MockManual{}
		manual.On("Send", mock.Anything, "+923001234567", mock.Anything).Return(nil).Once()

		got := whatsapp.NewChain(logger.Discard(), tw, cloud, manual).Send(context.Background(), subscriber(), msg)

		assert.Equal(t, notifications.OutcomePermanentFailure, got.Outcome)
		assert.True(t, got.Permanent())
		assert.Equal(t, "twilio", got.Gateway)
		assert.Contains(t, got.Error, "21211")
		require.Len(t, got.Fallbacks, 1)
		assert.Equal(t, "manual", got.Fallbacks[0].Gateway)
		assert.Equal(t, notifications.OutcomeSent, got.Fallbacks[0].Outcome)
		cloud.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
		manual.AssertExpectations(t)
	})

	t.Run("permanent failure after a transient one", func(t *testing.T) {
		t.Parallel()
		tw := newGateway("twilio", true)
		tw.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(notifications.Transient(errors.New("503"))).Once()
		cloud := newGateway("cloud_api", true)
		cloud.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(notifications.Permanent(errors.New("131026"))).Once()

		got := whatsapp.NewChain(logger.Discard(), tw, cloud, whatsapp.NewManualGateway(logger.Discard())).
			Send(context.Background(), subscriber(), msg)

		assert.Equal(t, notifications.OutcomePermanentFailure, got.Outcome)
		assert.Equal(t, "cloud_api", got.Gateway)
		require.Len(t, got.Fallbacks, 2)
		assert.Equal(t, "twilio", got.Fallbacks[0].Gateway)
		assert.Equal(t, "manual", got.Fallbacks[1].Gateway)
	})

	t.Run("permanent failure without a manual relay", func(t *testing.T) {
		t.Parallel()
		tw := newGateway("twilio", true)
		tw.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(notifications.Permanent(errors.New("21211"))).Once()
		cloud := newGateway("cloud_api", true)

		got := whatsapp.NewChain(logger.Discard(), tw, cloud).Send(context.Background(), subscriber(), msg)

		assert.Equal(t, notifications.OutcomePermanentFailure, got.Outcome)
		assert.Equal(t, "twilio", got.Gateway)
		assert.Empty(t, got.Fallbacks)
		cloud.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unconfigured gateways are skipped", func(t *testing.T) {
		t.Parallel()
		tw := newGateway("twilio", false)
		cloud := newGateway("cloud_api", true)
		cloud.On("Send", mock.Anything, "+923001234567", mock.Anything).Return(nil)

		chain := whatsapp.NewChain(logger.Discard(), tw, cloud)
		got := chain.Send(context.Background(), subscriber(), msg)

		assert.Equal(t, notifications.OutcomeSent, got.Outcome)
		assert.Equal(t, "cloud_api", got.Gateway)
		assert.Equal(t, []string{"cloud_api"}, chain.Gateways())
		tw.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("all gateways transient", func(t *testing.T) {
		t.Parallel()
		tw := newGateway("twilio", true)
		tw.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(notifications.Transient(errors.New("timeout")))

		got := whatsapp.NewChain(logger.Discard(), tw).Send(context.Background(), subscriber(), msg)

		assert.Equal(t, notifications.OutcomeTransientFailure, got.Outcome)
		assert.Equal(t, "twilio", got.Gateway)
		assert.Contains(t, got.Error, "every gateway failed")
	})

	t.Run("no configured gateway", func(t *testing.T) {
		t.Parallel()
		got := whatsapp.NewChain(logger.Discard(), newGateway("twilio", false)).Send(context.Background(), subscriber(), msg)

		assert.Equal(t, notifications.OutcomeTransientFailure, got.Outcome)
		assert.Contains(t, got.Error, notifications.ErrNoPathAvailable.Error())
	})

	t.Run("invalid recipient is permanent", func(t *testing.T) {
		t.Parallel()
		tw := newGateway("twilio", true)
		sub := subscriber()
		sub.EndpointKey = "not-a-number"

		got := whatsapp.NewChain(logger.Discard(), tw).Send(context.Background(), sub, msg)

		assert.Equal(t, notifications.OutcomePermanentFailure, got.Outcome)
		tw.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestComposeText(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"Hi Usman,\n\n*New Order #ORD-1*\nAli placed an order for PKR 2500\n\n/admin/mobile",
		whatsapp.ComposeText("Usman", msg),
	)
	assert.Equal(t, "*T*\nB", whatsapp.ComposeText("", notifications.Message{Title: "T", Body: "B"}))
}
