package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mrz1836/postmark"

	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

type postmarkClient struct {
	client *postmark.Client
	config Config
}

// PostmarkOption tweaks the underlying Postmark client.
type PostmarkOption func(*postmark.Client)

// WithHTTPClient swaps the HTTP client used for API calls.
func WithHTTPClient(c *http.Client) PostmarkOption {
	return func(pc *postmark.Client) {
		if c != nil {
			pc.HTTPClient = c
		}
	}
}

// NewPostmarkClient creates a Postmark-backed sender. The server token and a
// valid sender address are required.
func NewPostmarkClient(cfg Config, opts ...PostmarkOption) (EmailSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	rules := []validator.Rule{validator.ValidEmail("sender_email", cfg.SenderEmail)}
	if cfg.SupportEmail != "" {
		rules = append(rules, validator.ValidEmail("support_email", cfg.SupportEmail))
	}
	if err := validator.Apply(rules...); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	client := postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	for _, opt := range opts {
		opt(client)
	}
	return &postmarkClient{client: client, config: cfg}, nil
}

// MustNewPostmarkClient panics on invalid config.
func MustNewPostmarkClient(cfg Config, opts ...PostmarkOption) EmailSender {
	client, err := NewPostmarkClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

func (c *postmarkClient) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	msg := postmark.Email{
		From:       c.config.SenderEmail,
		To:         params.SendTo,
		Subject:    params.Subject,
		Tag:        params.Tag,
		HTMLBody:   params.BodyHTML,
		TextBody:   params.BodyText,
		TrackOpens: true,
	}
	if c.config.SupportEmail != "" {
		msg.ReplyTo = c.config.SupportEmail
	}

	resp, err := c.client.SendEmail(ctx, msg)
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSendEmail, &PostmarkError{Code: resp.ErrorCode, Message: resp.Message})
	}
	return nil
}
