package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iamusmankhan101/visioncare/internal/api"
	"github.com/iamusmankhan101/visioncare/pkg/httpserver"
	"github.com/iamusmankhan101/visioncare/pkg/logger"
)

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		checks     map[string]httpserver.Check
		wantStatus int
	}{
		{name: "live", path: "/health/live", wantStatus: http.StatusOK},
		{name: "ready without checks", path: "/health/ready", wantStatus: http.StatusOK},
		{
			name: "ready with failing check",
			path: "/health/ready",
			checks: map[string]httpserver.Check{
				"postgres": func(context.Context) error { return nil },
				"redis":    func(context.Context) error { return errors.New("down") },
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := api.Router(api.RouterOptions{Checks: tt.checks, Logger: logger.Discard()})
			rec := do(t, h, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_UnmountedServices(t *testing.T) {
	t.Parallel()

	h := api.Router(api.RouterOptions{})
	rec := do(t, h, http.MethodPost, "/notify/send", `{"title":"t","body":"b"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
