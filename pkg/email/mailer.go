package email

import (
	"context"

	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

type SendEmailParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	BodyText string `json:"body_text,omitempty"`
	Tag      string `json:"tag,omitempty"`
}

func (p SendEmailParams) Validate() error {
	return validator.Apply(
		validator.Required("send_to", p.SendTo),
		validator.ValidEmail("send_to", p.SendTo),
		validator.Required("subject", p.Subject),
		validator.Required("body", p.BodyHTML+p.BodyText),
	)
}
