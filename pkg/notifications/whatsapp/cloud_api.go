package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/webhook"
)

// Graph API error codes that mean the recipient is unusable.
var cloudPermanentCodes = []int{
	131026, // message undeliverable
	131021, // recipient cannot be sender
}

type cloudTextMessage struct {
	MessagingProduct string    `json:"messaging_product"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Text             cloudText `json:"text"`
}

type cloudText struct {
	Body string `json:"body"`
}

type cloudErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// CloudAPIGateway posts text messages to the WhatsApp Cloud API.
type CloudAPIGateway struct {
	sender  *webhook.Sender
	breaker *webhook.CircuitBreaker
	baseURL string
	phoneID string
	token   string
	timeout time.Duration
}

type CloudAPIOption func(*CloudAPIGateway)

func WithSender(s *webhook.Sender) CloudAPIOption {
	return func(g *CloudAPIGateway) {
		if s != nil {
			g.sender = s
		}
	}
}

func WithCircuitBreaker(cb *webhook.CircuitBreaker) CloudAPIOption {
	return func(g *CloudAPIGateway) { g.breaker = cb }
}

func NewCloudAPIGateway(cfg Config, opts ...CloudAPIOption) *CloudAPIGateway {
	g := &CloudAPIGateway{
		sender:  webhook.NewSender(),
		breaker: webhook.NewCircuitBreaker(5, 2, 30*time.Second),
		baseURL: strings.TrimRight(cfg.GraphBaseURL, "/"),
		phoneID: cfg.PhoneNumberID,
		token:   cfg.AccessToken,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *CloudAPIGateway) Name() string { return "cloud_api" }
func (g *CloudAPIGateway) Configured() bool {
	return g.baseURL != "" && g.phoneID != "" && g.token != ""
}

func (g *CloudAPIGateway) Send(ctx context.Context, to, text string) error {
	msg := cloudTextMessage{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(to, "+"),
		Type:             "text",
		Text:             cloudText{Body: text},
	}

	opts := []webhook.SendOption{
		webhook.WithBearerToken(g.token),
		webhook.WithTimeout(g.timeout),
	}
	if g.breaker != nil {
		opts = append(opts, webhook.WithCircuitBreaker(g.breaker))
	}

	resp, err := g.sender.Post(ctx, fmt.Sprintf("%s/%s/messages", g.baseURL, g.phoneID), msg, opts...)
	if err == nil {
		return nil
	}

	var body cloudErrorBody
	if len(resp.Body) > 0 && json.Unmarshal(resp.Body, &body) == nil && slices.Contains(cloudPermanentCodes, body.Error.Code) {
		return notifications.Permanent(fmt.Errorf("cloud api %d: %s: %w", body.Error.Code, body.Error.Message, err))
	}
	// Auth and quota errors are not the recipient's fault.
	return notifications.Transient(err)
}
