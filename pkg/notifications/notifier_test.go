package notifications_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, event notifications.NotificationEvent, attempts []notifications.DeliveryAttempt) error {
	return m.Called(ctx, event, attempts).Error(0)
}

func TestNotifier_Notify(t *testing.T) {
	t.Parallel()

	t.Run("records attempts", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		reg := newRegistry()
		_, err := reg.Register(ctx, notifications.ChannelWebPush, "E1", nil)
		require.NoError(t, err)

		rec := &MockRecorder{}
		rec.On("Record", mock.Anything, mock.MatchedBy(func(e notifications.NotificationEvent) bool {
			return e.DedupKey == "order_placed:ORD-1" && !e.CreatedAt.IsZero()
		}), mock.MatchedBy(func(a []notifications.DeliveryAttempt) bool {
			return len(a) == 1 && a[0].Sent()
		})).Return(nil)

		n := notifications.NewNotifier(
			notifications.NewDispatcher(reg,
				notifications.WithAdapter(notifications.ChannelWebPush, sentAdapter()),
				notifications.WithDispatcherLogger(logger.Discard()),
			),
			notifications.NewPruner(reg, logger.Discard()),
			notifications.WithAttemptRecorder(rec),
			notifications.WithNotifierLogger(logger.Discard()),
		)
		res := n.Notify(ctx, testEvent("ORD-1"))

		assert.Equal(t, 1, res.Sent)
		rec.AssertExpectations(t)
	})

	t.Run("recorder failure does not change result", func(t *testing.T) {
		t.Parallel()
		ctx := context.Background()
		reg := newRegistry()
		_, err := reg.Register(ctx, notifications.ChannelWebPush, "E1", nil)
		require.NoError(t, err)

		rec := &MockRecorder{}
		rec.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("insert failed"))

		n := notifications.NewNotifier(
			notifications.NewDispatcher(reg,
				notifications.WithAdapter(notifications.ChannelWebPush, sentAdapter()),
				notifications.WithDispatcherLogger(logger.Discard()),
			),
			notifications.NewPruner(reg, logger.Discard()),
			notifications.WithAttemptRecorder(rec),
			notifications.WithNotifierLogger(logger.Discard()),
		)
		res := n.Notify(ctx, testEvent("ORD-2"))
		assert.Equal(t, 1, res.Sent)
	})

	t.Run("no subscriptions skips recorder", func(t *testing.T) {
		t.Parallel()
		rec := &MockRecorder{}
		reg := newRegistry()
		n := notifications.NewNotifier(
			notifications.NewDispatcher(reg, notifications.WithDispatcherLogger(logger.Discard())),
			notifications.NewPruner(reg, logger.Discard()),
			notifications.WithAttemptRecorder(rec),
		)
		res := n.Notify(context.Background(), testEvent("ORD-3"))

		assert.Empty(t, res.Attempts)
		rec.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStats_Snapshot(t *testing.T) {
	t.Parallel()

	s := notifications.NewStats(2)
	for i, id := range []string{"A", "B", "C"} {
		s.Observe(testEvent(id), notifications.Result{
			Attempts: []notifications.DeliveryAttempt{{Outcome: notifications.OutcomeSent}},
			Sent:     1,
			Pruned:   i,
		}, fixedTime(i))
	}

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Dispatches)
	assert.Equal(t, 3, snap.Outcomes[notifications.OutcomeSent])
	assert.Equal(t, 3, snap.Pruned)
	require.Len(t, snap.Recent, 2)
	assert.Equal(t, "order_placed:C", snap.Recent[0].DedupKey)
	assert.Equal(t, "order_placed:B", snap.Recent[1].DedupKey)
	require.NotNil(t, snap.LastDispatchAt)
	assert.Equal(t, fixedTime(2), *snap.LastDispatchAt)
}
