package binder_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamusmankhan101/visioncare/binder"
)

type sendRequest struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

func newRequest(body, contentType string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/notify/send", strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	return r
}

func TestBindJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		ct      string
		opts    []binder.JSONOption
		wantErr error
	}{
		{"valid", `{"title":"t","body":"b","data":{"k":"v"}}`, "application/json", nil, nil},
		{"charset param", `{"title":"t"}`, "application/json; charset=utf-8", nil, nil},
		{"missing content type", `{}`, "", nil, binder.ErrMissingContentType},
		{"wrong content type", `{}`, "text/plain", nil, binder.ErrUnsupportedMediaType},
		{"unknown field strict", `{"title":"t","extra":1}`, "application/json", nil, binder.ErrInvalidJSON},
		{"unknown field lenient", `{"title":"t","extra":1}`, "application/json", []binder.JSONOption{binder.AllowUnknownFields()}, nil},
		{"empty body", ``, "application/json", nil, binder.ErrInvalidJSON},
		{"malformed", `{"title":`, "application/json", nil, binder.ErrInvalidJSON},
		{"trailing data", `{"title":"t"}{"title":"u"}`, "application/json", nil, binder.ErrInvalidJSON},
		{"too large", `{"title":"` + strings.Repeat("x", 64) + `"}`, "application/json", []binder.JSONOption{binder.WithMaxBody(16)}, binder.ErrBodyTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var req sendRequest
			err := binder.BindJSON(tt.opts...)(newRequest(tt.body, tt.ct), &req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "t", req.Title)
		})
	}
}
