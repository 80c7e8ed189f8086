package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/iamusmankhan101/visioncare/pkg/async"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
)

// Twilio error codes that mean the recipient is unusable.
var twilioPermanentCodes = []int{
	21211, // invalid 'To' number
	21614, // 'To' is not a valid mobile number
	63024, // invalid message recipient
}

// MessageCreator is the Twilio messages API.
type MessageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioGateway sends WhatsApp messages through Twilio's Programmable
// Messaging API.
type TwilioGateway struct {
	api  MessageCreator
	from string
}

// NewTwilioGateway returns an unconfigured gateway when the account
// credentials are missing.
func NewTwilioGateway(cfg Config) *TwilioGateway {
	g := &TwilioGateway{from: withPrefix(cfg.TwilioFrom)}
	if cfg.TwilioEnabled() {
		g.api = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		}).Api
	}
	return g
}

// NewTwilioGatewayWithAPI is used with a custom or fake API client.
func NewTwilioGatewayWithAPI(api MessageCreator, from string) *TwilioGateway {
	return &TwilioGateway{api: api, from: withPrefix(from)}
}

func (g *TwilioGateway) Name() string     { return "twilio" }
func (g *TwilioGateway) Configured() bool { return g.api != nil && g.from != "" }

// Send runs the blocking API call in a future so ctx cancellation is
// honored.
func (g *TwilioGateway) Send(ctx context.Context, to, text string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(withPrefix(to))
	params.SetFrom(g.from)
	params.SetBody(text)

	_, err := async.Async(ctx, params, func(_ context.Context, p *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
		return g.api.CreateMessage(p)
	}).AwaitContext(ctx)
	if err == nil {
		return nil
	}

	var restErr *twclient.TwilioRestError
	if errors.As(err, &restErr) && slices.Contains(twilioPermanentCodes, restErr.Code) {
		return notifications.Permanent(fmt.Errorf("twilio %d: %w", restErr.Code, err))
	}
	return notifications.Transient(err)
}

func withPrefix(number string) string {
	if number == "" || strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
