package app_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamusmankhan101/visioncare/internal/app"
	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/poller"
	"github.com/iamusmankhan101/visioncare/pkg/ratelimiter"
)

func testConfigs() app.Configs {
	return app.Configs{
		App: app.Config{
			RegistryBackend:     app.BackendMemory,
			DispatchConcurrency: 4,
			SendTimeout:         time.Second,
			DedupTTL:            time.Minute,
			StatsRecent:         5,
			Mock:                true,
			AdminURL:            "/admin/mobile",
		},
	}
}

func newApp(t *testing.T, opts ...app.Option) *app.App {
	t.Helper()
	a, err := app.New(context.Background(), testConfigs(), logger.Discard(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func post(t *testing.T, h http.Handler, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func webPushBody(endpoint string) string {
	p256dh := base64.RawURLEncoding.EncodeToString(bytes.Repeat([]byte{4}, 65))
	auth := base64.RawURLEncoding.EncodeToString(bytes.Repeat([]byte{1}, 16))
	return fmt.Sprintf(`{"endpoint":%q,"keys":{"p256dh":%q,"auth":%q}}`, endpoint, p256dh, auth)
}

func TestApp_MockModeEndToEnd(t *testing.T) {
	t.Parallel()

	a := newApp(t)
	h := a.Handler()

	for _, ch := range notifications.Channels() {
		assert.True(t, a.Dispatcher.HasAdapter(ch), ch)
	}

	code, _ := post(t, h, "/push/subscribe", webPushBody("https://push.example.com/1"))
	require.Equal(t, http.StatusOK, code)
	code, _ = post(t, h, "/push/subscribe", webPushBody("https://push.example.com/1"))
	require.Equal(t, http.StatusOK, code)
	code, _ = post(t, h, "/push/subscribe", `{"channel":"whatsapp","endpointKey":"+923001234567"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := post(t, h, "/notify/send", `{"title":"Hello","body":"World"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), body["sent"])
	assert.Equal(t, float64(2), body["totalSubscriptions"])

	order := `{"id":1,"orderNumber":"ORD-1","customerInfo":{"firstName":"Hina","lastName":"Ali"},"total":999}`
	code, body = post(t, h, "/webhook/order-placed", order)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dispatched", body["reason"])
	assert.NotContains(t, body, "result")

	code, body = post(t, h, "/webhook/order-placed", order)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "duplicate", body["reason"])

	snap := a.Notifier.Stats()
	assert.Equal(t, 2, snap.Dispatches)
	assert.Equal(t, 4, snap.Outcomes[notifications.OutcomeSent])
}

func TestApp_PermanentFailurePrunes(t *testing.T) {
	t.Parallel()

	gone := notifications.AdapterFunc(func(_ context.Context, sub notifications.Subscription, _ notifications.Message) notifications.DeliveryAttempt {
		return notifications.NewAttempt(sub, "test").Fail(notifications.Permanent(errors.New("410 gone")))
	})
	a := newApp(t, app.WithChannelAdapter(notifications.ChannelWebPush, gone))
	h := a.Handler()

	code, _ := post(t, h, "/push/subscribe", webPushBody("https://push.example.com/dead"))
	require.Equal(t, http.StatusOK, code)

	code, body := post(t, h, "/notify/send", `{"title":"t","body":"b"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), body["pruned"])

	subs, err := a.Registry.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestApp_OrderWatcherRequiresPostgres(t *testing.T) {
	t.Parallel()

	_, err := newApp(t).NewOrderWatcher(false)
	assert.ErrorIs(t, err, app.ErrPostgresRequired)
}

func TestApp_BackendRequiresConnection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		backend string
		wantErr error
	}{
		{app.BackendPostgres, app.ErrPostgresRequired},
		{app.BackendRedis, app.ErrRedisRequired},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			t.Parallel()
			cfg := testConfigs()
			cfg.App.RegistryBackend = tt.backend
			_, err := app.New(context.Background(), cfg, logger.Discard())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestApp_SQLiteBackend(t *testing.T) {
	t.Parallel()

	cfg := testConfigs()
	cfg.App.RegistryBackend = app.BackendSQLite
	cfg.App.SQLitePath = t.TempDir() + "/subs.db"

	a, err := app.New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Registry.Register(context.Background(), notifications.ChannelEmail, "owner@shop.pk", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sqlite")
}

type recordingIngester struct {
	raws   []notifications.RawEvent
	result notifications.IngestResult
}

func (r *recordingIngester) Ingest(_ context.Context, raw notifications.RawEvent) notifications.IngestResult {
	r.raws = append(r.raws, raw)
	return r.result
}

func TestOrderEmitter(t *testing.T) {
	t.Parallel()

	total := 1200.0
	n := poller.OrderFormatter(poller.Record{ID: "5", Number: "ORD-5", Customer: "Zara", Total: &total})

	t.Run("forwards to ingress", func(t *testing.T) {
		t.Parallel()
		in := &recordingIngester{result: notifications.IngestResult{Accepted: true, Reason: notifications.ReasonDuplicate}}
		require.NoError(t, app.OrderEmitter(in, "/admin/mobile", logger.Discard()).Emit(context.Background(), n))
		require.Len(t, in.raws, 1)
		assert.Equal(t, "ORD-5", in.raws[0].BusinessID)
		assert.Equal(t, "Zara placed an order for PKR 1200", in.raws[0].Body)
	})

	t.Run("rejected records do not stall the poller", func(t *testing.T) {
		t.Parallel()
		in := &recordingIngester{result: notifications.IngestResult{Reason: notifications.ReasonInvalidPayload, Err: notifications.ErrInvalidPayload}}
		assert.NoError(t, app.OrderEmitter(in, "", logger.Discard()).Emit(context.Background(), n))
	})
}

func TestApp_RateLimitsPublicRoutes(t *testing.T) {
	t.Parallel()

	cfg := testConfigs()
	cfg.App.RateLimit = true
	cfg.Limit = ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute}

	a, err := app.New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	defer a.Close()
	h := a.Handler()

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "198.51.100.20:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.NotEqual(t, http.StatusTooManyRequests, get("/push/public-key").Code)
	rec := get("/push/public-key")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "too_many_requests")

	assert.Equal(t, http.StatusOK, get("/notify/stats").Code)
}
