package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamusmankhan101/visioncare/pkg/httpserver"
)

func startServer(t *testing.T, opts ...httpserver.Option) (*httpserver.Server, context.CancelFunc, <-chan error) {
	t.Helper()

	started := make(chan struct{})
	opts = append([]httpserver.Option{
		httpserver.WithAddr("127.0.0.1:0"),
		httpserver.WithShutdownTimeout(200 * time.Millisecond),
		httpserver.WithStartHook(func(context.Context, *slog.Logger) { close(started) }),
	}, opts...)
	srv := httpserver.New(opts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
	}()

	select {
	case <-started:
	case err := <-done:
		cancel()
		t.Fatalf("server exited early: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("server did not start")
	}
	return srv, cancel, done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.Fail(t, "run did not finish")
	}
}

func TestRunAndCancel(t *testing.T) {
	t.Parallel()

	srv, cancel, done := startServer(t)
	resp, err := http.Get("http://" + srv.Addr().String())
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	waitDone(t, done)
	require.NoError(t, srv.Shutdown(context.Background()))
}

func TestManualShutdown(t *testing.T) {
	t.Parallel()

	srv, cancel, done := startServer(t)
	defer cancel()

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()))
	waitDone(t, done)
}

func TestStopHookRunsWithDeadline(t *testing.T) {
	t.Parallel()

	var stopped atomic.Bool
	var hadDeadline atomic.Bool
	_, cancel, done := startServer(t, httpserver.WithStopHook(func(ctx context.Context, _ *slog.Logger) {
		_, ok := ctx.Deadline()
		hadDeadline.Store(ok)
		stopped.Store(true)
	}))

	cancel()
	waitDone(t, done)
	assert.True(t, stopped.Load())
	assert.True(t, hadDeadline.Load())
}

func TestStartError(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.WithAddr(":invalid"))
	err := srv.Run(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestAlreadyRunning(t *testing.T) {
	t.Parallel()

	srv, cancel, done := startServer(t)
	err := srv.Run(context.Background(), nil)
	assert.ErrorIs(t, err, httpserver.ErrAlreadyRunning)

	cancel()
	waitDone(t, done)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	hs := &http.Server{}
	started := make(chan struct{})
	srv := httpserver.NewFromConfig(httpserver.Config{
		Addr:            "127.0.0.1:0",
		ReadTimeout:     2 * time.Second,
		WriteTimeout:    3 * time.Second,
		ShutdownTimeout: 100 * time.Millisecond,
	},
		httpserver.WithServer(hs),
		httpserver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		httpserver.WithStartHook(func(context.Context, *slog.Logger) { close(started) }),
	)

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background(), nil) }()
	<-started

	assert.Equal(t, "127.0.0.1:0", hs.Addr)
	assert.Equal(t, 2*time.Second, hs.ReadTimeout)
	assert.Equal(t, 3*time.Second, hs.WriteTimeout)
	assert.NotNil(t, hs.Handler)

	require.NoError(t, srv.Shutdown(context.Background()))
	waitDone(t, done)
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func()
	}{
		{"addr", func() { httpserver.WithAddr("") }},
		{"read", func() { httpserver.WithReadTimeout(-time.Second) }},
		{"write", func() { httpserver.WithWriteTimeout(0) }},
		{"idle", func() { httpserver.WithIdleTimeout(-time.Second) }},
		{"shutdown", func() { httpserver.WithShutdownTimeout(0) }},
		{"server", func() { httpserver.WithServer(nil) }},
		{"start hook", func() { httpserver.WithStartHook(nil) }},
		{"stop hook", func() { httpserver.WithStopHook(nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Panics(t, tt.fn)
		})
	}
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpserver.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("down") }

	tests := []struct {
		name     string
		checks   map[string]httpserver.Check
		code     int
		status   string
		expected map[string]string
	}{
		{"no checks", nil, http.StatusOK, "ready", map[string]string{}},
		{"all ok", map[string]httpserver.Check{"postgres": ok, "redis": ok}, http.StatusOK, "ready", map[string]string{"postgres": "ok", "redis": "ok"}},
		{"one failing", map[string]httpserver.Check{"postgres": ok, "redis": fail}, http.StatusServiceUnavailable, "not_ready", map[string]string{"postgres": "ok", "redis": "fail"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			httpserver.ReadinessHandler(nil, tt.checks)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
			assert.Equal(t, tt.code, rec.Code)

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			if len(tt.expected) > 0 {
				assert.Equal(t, tt.expected, body.Checks)
			}
		})
	}
}
