package email_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamusmankhan101/visioncare/pkg/email"
	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func jsonResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

var validConfig = email.Config{
	PostmarkServerToken: "server-token",
	SenderEmail:         "orders@visioncare.pk",
	SupportEmail:        "support@visioncare.pk",
}

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     email.Config
		wantErr bool
	}{
		{"valid", validConfig, false},
		{"no support address", email.Config{PostmarkServerToken: "t", SenderEmail: "a@b.co"}, false},
		{"missing token", email.Config{SenderEmail: "a@b.co"}, true},
		{"bad sender", email.Config{PostmarkServerToken: "t", SenderEmail: "nope"}, true},
		{"bad support", email.Config{PostmarkServerToken: "t", SenderEmail: "a@b.co", SupportEmail: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := email.NewPostmarkClient(tt.cfg)
			if tt.wantErr {
				assert.ErrorIs(t, err, email.ErrInvalidConfig)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}

	assert.Panics(t, func() { email.MustNewPostmarkClient(email.Config{}) })
}

func TestPostmarkClient_SendEmail(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		var sent map[string]any
		hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			assert.Equal(t, "server-token", r.Header.Get("X-Postmark-Server-Token"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
			return jsonResponse(`{"ErrorCode":0,"Message":"OK","MessageID":"abc"}`), nil
		})}
		c := email.MustNewPostmarkClient(validConfig, email.WithHTTPClient(hc))

		err := c.SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "owner@visioncare.pk",
			Subject:  "New Order #1001",
			BodyText: "Ali placed an order",
			Tag:      "order_placed",
		})
		require.NoError(t, err)
		assert.Equal(t, "owner@visioncare.pk", sent["To"])
		assert.Equal(t, "orders@visioncare.pk", sent["From"])
		assert.Equal(t, "support@visioncare.pk", sent["ReplyTo"])
	})

	t.Run("inactive recipient is permanent", func(t *testing.T) {
		t.Parallel()

		hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return jsonResponse(`{"ErrorCode":406,"Message":"Inactive recipient"}`), nil
		})}
		c := email.MustNewPostmarkClient(validConfig, email.WithHTTPClient(hc))

		err := c.SendEmail(context.Background(), email.SendEmailParams{
			SendTo: "gone@visioncare.pk", Subject: "s", BodyText: "b",
		})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.True(t, email.IsPermanent(err))
	})

	t.Run("transport error is transient", func(t *testing.T) {
		t.Parallel()

		hc := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection reset")
		})}
		c := email.MustNewPostmarkClient(validConfig, email.WithHTTPClient(hc))

		err := c.SendEmail(context.Background(), email.SendEmailParams{
			SendTo: "owner@visioncare.pk", Subject: "s", BodyText: "b",
		})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.False(t, email.IsPermanent(err))
	})

	t.Run("invalid params", func(t *testing.T) {
		t.Parallel()

		c := email.MustNewPostmarkClient(validConfig)
		err := c.SendEmail(context.Background(), email.SendEmailParams{SendTo: "bad"})
		assert.True(t, validator.IsValidationError(err))
	})
}

func TestPostmarkError(t *testing.T) {
	t.Parallel()

	assert.True(t, email.IsPermanent(&email.PostmarkError{Code: 300}))
	assert.False(t, email.IsPermanent(&email.PostmarkError{Code: 500, Message: "server"}))
	assert.False(t, email.IsPermanent(errors.New("x")))
	assert.Equal(t, "postmark error 406: Inactive recipient", (&email.PostmarkError{Code: 406, Message: "Inactive recipient"}).Error())
}
