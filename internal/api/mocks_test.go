package api_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/iamusmankhan101/visioncare/pkg/notifications"
)

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Register(ctx context.Context, channel notifications.Channel, endpointKey string, credentials map[string]string) (notifications.Subscription, error) {
	args := m.Called(ctx, channel, endpointKey, credentials)
	return args.Get(0).(notifications.Subscription), args.Error(1)
}

func (m *MockRegistry) Remove(ctx context.Context, channel notifications.Channel, endpointKey string) (bool, error) {
	args := m.Called(ctx, channel, endpointKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistry) CountByChannel(ctx context.Context) (map[notifications.Channel]int, error) {
	args := m.Called(ctx)
	if counts := args.Get(0); counts != nil {
		return counts.(map[notifications.Channel]int), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event notifications.NotificationEvent) notifications.Result {
	args := m.Called(ctx, event)
	return args.Get(0).(notifications.Result)
}

func (m *MockNotifier) Stats() notifications.StatsSnapshot {
	args := m.Called()
	return args.Get(0).(notifications.StatsSnapshot)
}

type MockIngester struct {
	mock.Mock
}

func (m *MockIngester) Ingest(ctx context.Context, raw notifications.RawEvent) notifications.IngestResult {
	args := m.Called(ctx, raw)
	return args.Get(0).(notifications.IngestResult)
}
