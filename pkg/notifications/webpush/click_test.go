package webpush_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iamusmankhan101/visioncare/pkg/notifications/webpush"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) URL() string { return m.Called().String(0) }
func (m *MockClient) Focus() error {
	return m.Called().Error(0)
}
func (m *MockClient) PostMessage(msg webpush.ClickMessage) error {
	return m.Called(msg).Error(0)
}

type MockClients struct {
	mock.Mock
}

func (m *MockClients) MatchAll() []webpush.Client {
	clients, _ := m.Called().Get(0).([]webpush.Client)
	return clients
}

func (m *MockClients) OpenWindow(url string) error {
	return m.Called(url).Error(0)
}

func TestHandleClick(t *testing.T) {
	t.Parallel()

	data := map[string]string{"url": "/admin/mobile", "orderNumber": "ORD-1"}

	t.Run("dismiss does nothing", func(t *testing.T) {
		t.Parallel()
		clients := &MockClients{}
		res, err := webpush.HandleClick(clients, webpush.ActionDismiss, data)
		require.NoError(t, err)
		assert.Equal(t, webpush.ClickIgnored, res)
		clients.AssertNotCalled(t, "MatchAll")
	})

	t.Run("focuses an open client and posts the message", func(t *testing.T) {
		t.Parallel()
		other := &MockClient{}
		other.On("URL").Return("https://shop.example/")
		admin := &MockClient{}
		admin.On("URL").Return("https://shop.example/admin/mobile")
		admin.On("Focus").Return(nil)
		admin.On("PostMessage", webpush.ClickMessage{Type: webpush.MessageNotificationClicked, Data: data}).Return(nil)

		clients := &MockClients{}
		clients.On("MatchAll").Return([]webpush.Client{other, admin})

		res, err := webpush.HandleClick(clients, webpush.ActionView, data)
		require.NoError(t, err)
		assert.Equal(t, webpush.ClickFocused, res)
		admin.AssertExpectations(t)
		clients.AssertNotCalled(t, "OpenWindow", mock.Anything)
	})

	t.Run("opens a window when none is open", func(t *testing.T) {
		t.Parallel()
		clients := &MockClients{}
		clients.On("MatchAll").Return([]webpush.Client{})
		clients.On("OpenWindow", "/admin/mobile").Return(nil)

		res, err := webpush.HandleClick(clients, "", data)
		require.NoError(t, err)
		assert.Equal(t, webpush.ClickOpened, res)
		clients.AssertExpectations(t)
	})

	t.Run("no url and no client", func(t *testing.T) {
		t.Parallel()
		clients := &MockClients{}
		clients.On("MatchAll").Return([]webpush.Client{})

		_, err := webpush.HandleClick(clients, webpush.ActionView, map[string]string{})
		assert.ErrorIs(t, err, webpush.ErrNoTarget)
	})
}
