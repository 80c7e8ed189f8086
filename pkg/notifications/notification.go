package notifications

import (
	"maps"
	"strings"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

// Channel identifies a delivery path to a recipient device or inbox.
type Channel string

const (
	ChannelWebPush           Channel = "web_push"
	ChannelCloudMessaging    Channel = "cloud_messaging"
	ChannelBusinessMessaging Channel = "business_messaging"
	ChannelEmail             Channel = "email"
)

// Channels lists every supported channel in a stable order.
func Channels() []Channel {
	return []Channel{ChannelWebPush, ChannelCloudMessaging, ChannelBusinessMessaging, ChannelEmail}
}

func (c Channel) Valid() bool {
	switch c {
	case ChannelWebPush, ChannelCloudMessaging, ChannelBusinessMessaging, ChannelEmail:
		return true
	}
	return false
}

func (c Channel) String() string { return string(c) }

// ParseChannel accepts the canonical names plus a few aliases used by older
// clients ("webpush", "fcm", "whatsapp").
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "web_push", "webpush", "push":
		return ChannelWebPush, nil
	case "cloud_messaging", "fcm":
		return ChannelCloudMessaging, nil
	case "business_messaging", "whatsapp":
		return ChannelBusinessMessaging, nil
	case "email", "mail":
		return ChannelEmail, nil
	}
	return "", ErrInvalidChannel
}

// NormalizeEndpoint canonicalizes an endpoint key so that registration and
// removal agree: surrounding space is dropped, e-mail addresses are lower
// cased and phone numbers lose separators and the "whatsapp:" prefix.
func NormalizeEndpoint(channel Channel, key string) string {
	key = strings.TrimSpace(key)
	switch channel {
	case ChannelEmail:
		return strings.ToLower(key)
	case ChannelBusinessMessaging:
		return validator.NormalizePhone(key)
	}
	return key
}

// Well-known credential keys.
const (
	CredentialP256dh   = "p256dh"
	CredentialAuth     = "auth"
	CredentialPlatform = "platform"
	CredentialName     = "name"
)

// Subscription is a registered recipient endpoint. (Channel, EndpointKey) is
// unique; ID and CreatedAt never change after the first registration.
type Subscription struct {
	ID          string            `json:"id"`
	Channel     Channel           `json:"channel"`
	EndpointKey string            `json:"endpointKey"`
	Credentials map[string]string `json:"credentials,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Credential returns the credential value for key or "".
func (s Subscription) Credential(key string) string {
	if s.Credentials == nil {
		return ""
	}
	return s.Credentials[key]
}

func (s Subscription) clone() Subscription {
	s.Credentials = maps.Clone(s.Credentials)
	return s
}

// Outcome classifies a single delivery attempt.
type Outcome string

const (
	OutcomeSent             Outcome = "sent"
	OutcomeTransientFailure Outcome = "transient_failure"
	OutcomePermanentFailure Outcome = "permanent_failure"
)

// GatewayAttempt records one provider tried inside a fallback chain.
type GatewayAttempt struct {
	Gateway  string        `json:"gateway"`
	Outcome  Outcome       `json:"outcome"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// DeliveryAttempt is the immutable record of sending one event to one
// subscription.
type DeliveryAttempt struct {
	SubscriptionID string           `json:"subscriptionId"`
	Channel        Channel          `json:"channel"`
	EndpointKey    string           `json:"endpointKey"`
	Gateway        string           `json:"gateway,omitempty"`
	Outcome        Outcome          `json:"outcome"`
	Error          string           `json:"error,omitempty"`
	AttemptedAt    time.Time        `json:"attemptedAt"`
	Duration       time.Duration    `json:"duration"`
	Fallbacks      []GatewayAttempt `json:"fallbacks,omitempty"`
}

func (a DeliveryAttempt) Sent() bool      { return a.Outcome == OutcomeSent }
func (a DeliveryAttempt) Permanent() bool { return a.Outcome == OutcomePermanentFailure }

// NewAttempt starts an attempt for sub. Adapters fill the outcome with
// Succeed or Fail.
func NewAttempt(sub Subscription, gateway string) DeliveryAttempt {
	return DeliveryAttempt{
		SubscriptionID: sub.ID,
		Channel:        sub.Channel,
		EndpointKey:    sub.EndpointKey,
		Gateway:        gateway,
		AttemptedAt:    time.Now(),
	}
}

func (a DeliveryAttempt) Succeed() DeliveryAttempt {
	a.Outcome = OutcomeSent
	a.Error = ""
	a.Duration = time.Since(a.AttemptedAt)
	return a
}

// Fail records err. Errors matching ErrPermanent become permanent failures,
// everything else is transient.
func (a DeliveryAttempt) Fail(err error) DeliveryAttempt {
	a.Outcome = Classify(err)
	if err != nil {
		a.Error = err.Error()
	}
	a.Duration = time.Since(a.AttemptedAt)
	return a
}

// NotificationEvent is a business event to announce to every subscription.
type NotificationEvent struct {
	DedupKey   string            `json:"dedupKey"`
	Type       string            `json:"type"`
	BusinessID string            `json:"businessId"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Tag        string            `json:"tag,omitempty"`
	URL        string            `json:"url,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// DedupKey joins the event type and business identifier, for example
// "order_placed:ORD-12345".
func DedupKey(eventType, businessID string) string {
	return eventType + ":" + businessID
}

const (
	DefaultTag   = "general"
	DefaultIcon  = "/logo192.png"
	DefaultBadge = "/logo192.png"
)

// Message is the channel-neutral rendering handed to adapters.
type Message struct {
	Title              string
	Body               string
	Tag                string
	URL                string
	Icon               string
	Badge              string
	RequireInteraction bool
	Data               map[string]string
}

// Message renders the event. The URL is mirrored into Data["url"] so click
// handlers can open it.
func (e NotificationEvent) Message() Message {
	data := maps.Clone(e.Data)
	if data == nil {
		data = make(map[string]string)
	}
	if e.URL != "" {
		data["url"] = e.URL
	}
	if e.Type != "" {
		data["type"] = e.Type
	}
	tag := e.Tag
	if tag == "" {
		tag = DefaultTag
	}
	return Message{
		Title:              e.Title,
		Body:               e.Body,
		Tag:                tag,
		URL:                e.URL,
		Icon:               DefaultIcon,
		Badge:              DefaultBadge,
		RequireInteraction: true,
		Data:               data,
	}
}
