package mail

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"github.com/iamusmankhan101/visioncare/pkg/email"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

const gatewayName = "postmark"

var htmlBody = template.Must(template.New("notification").Parse(`<!doctype html>
<html><body style="font-family:sans-serif">
{{if .Name}}<p>Hi {{.Name}},</p>{{end}}
<h2>{{.Title}}</h2>
<p>{{.Body}}</p>
{{if .URL}}<p><a href="{{.URL}}">View details</a></p>{{end}}
</body></html>`))

// Adapter delivers notifications as e-mail. EndpointKey is the address and
// the "name" credential, when present, personalizes the greeting.
type Adapter struct {
	sender  email.EmailSender
	baseURL string
}

type Option func(*Adapter)

// WithBaseURL makes relative notification URLs absolute in the mail body.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimRight(u, "/") }
}

func New(sender email.EmailSender, opts ...Option) *Adapter {
	a := &Adapter{sender: sender}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Send reports invalid addresses and inactive recipients as permanent.
func (a *Adapter) Send(ctx context.Context, sub notifications.Subscription, msg notifications.Message) notifications.DeliveryAttempt {
	attempt := notifications.NewAttempt(sub, gatewayName)

	params, err := a.params(sub, msg)
	if err != nil {
		return attempt.Fail(notifications.Transient(err))
	}

	err = a.sender.SendEmail(ctx, params)
	switch {
	case err == nil:
		return attempt.Succeed()
	case email.IsPermanent(err), validator.IsValidationError(err):
		return attempt.Fail(notifications.Permanent(err))
	default:
		return attempt.Fail(notifications.Transient(err))
	}
}

func (a *Adapter) params(sub notifications.Subscription, msg notifications.Message) (email.SendEmailParams, error) {
	link := msg.URL
	if link != "" && strings.HasPrefix(link, "/") && a.baseURL != "" {
		link = a.baseURL + link
	}

	var buf bytes.Buffer
	err := htmlBody.Execute(&buf, struct {
		Name, Title, Body, URL string
	}{
		Name:  sub.Credential(notifications.CredentialName),
		Title: msg.Title,
		Body:  msg.Body,
		URL:   link,
	})
	if err != nil {
		return email.SendEmailParams{}, err
	}

	text := msg.Title + "\n\n" + msg.Body
	if link != "" {
		text += "\n\n" + link
	}
	return email.SendEmailParams{
		SendTo:   sub.EndpointKey,
		Subject:  msg.Title,
		BodyHTML: buf.String(),
		BodyText: text,
		Tag:      msg.Tag,
	}, nil
}
