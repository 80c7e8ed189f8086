package whatsapp

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/notifications"
	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

var (
	ErrInvalidRecipient  = errors.New("whatsapp: invalid recipient number")
	ErrAllGatewaysFailed = errors.New("whatsapp: every gateway failed")
)

// Gateway sends a text message to a phone number in E.164 form. Errors are
// wrapped with notifications.Permanent when the recipient can never be
// reached and notifications.Transient otherwise.
type Gateway interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, to, text string) error
}

// Chain tries its gateways in order and stops at the first one that sends.
// After a permanent failure only last-resort gateways (the manual relay) still
// run, and the attempt keeps the permanent outcome so the subscription is
// pruned. Unconfigured gateways are skipped.
type Chain struct {
	gateways []Gateway
	logger   *slog.Logger
}

func NewChain(log *slog.Logger, gateways ...Gateway) *Chain {
	if log == nil {
		log = slog.Default()
	}
	return &Chain{gateways: gateways, logger: log}
}

// Gateways returns the names of the configured gateways in try order.
func (c *Chain) Gateways() []string {
	names := make([]string, 0, len(c.gateways))
	for _, g := range c.gateways {
		if g.Configured() {
			names = append(names, g.Name())
		}
	}
	return names
}

func (c *Chain) Send(ctx context.Context, sub notifications.Subscription, msg notifications.Message) notifications.DeliveryAttempt {
	attempt := notifications.NewAttempt(sub, "")

	to := validator.NormalizePhone(sub.EndpointKey)
	if err := validator.Apply(validator.ValidPhone("endpointKey", to)); err != nil {
		return attempt.Fail(notifications.Permanent(errors.Join(ErrInvalidRecipient, err)))
	}
	text := ComposeText(sub.Credential(notifications.CredentialName), msg)

	var (
		tried   []notifications.GatewayAttempt
		lastErr error
		permErr error
		primary = -1
	)
	for _, g := range c.gateways {
		if !g.Configured() {
			continue
		}
		if permErr != nil && !isLastResort(g) {
			continue
		}
		if ctx.Err() != nil {
			lastErr = notifications.Transient(ctx.Err())
			break
		}

		start := time.Now()
		err := g.Send(ctx, to, text)
		tried = append(tried, notifications.GatewayAttempt{
			Gateway:  g.Name(),
			Outcome:  notifications.Classify(err),
			Error:    errString(err),
			Duration: time.Since(start),
		})

		if err == nil {
			if permErr != nil {
				break
			}
			return c.finish(attempt, tried, len(tried)-1, nil)
		}
		if permErr == nil && notifications.Classify(err) == notifications.OutcomePermanentFailure {
			permErr = err
			primary = len(tried) - 1
			c.logger.LogAttrs(ctx, slog.LevelWarn, "whatsapp recipient rejected, handing off for manual delivery",
				logger.Gateway(g.Name()),
				logger.SubscriptionID(sub.ID),
				logger.Error(err),
			)
			continue
		}
		lastErr = err
		c.logger.LogAttrs(ctx, slog.LevelWarn, "whatsapp gateway failed, trying next",
			logger.Gateway(g.Name()),
			logger.SubscriptionID(sub.ID),
			logger.Error(err),
		)
	}

	if permErr != nil {
		return c.finish(attempt, tried, primary, permErr)
	}
	if len(tried) == 0 && lastErr == nil {
		return attempt.Fail(notifications.Transient(notifications.ErrNoPathAvailable))
	}
	if lastErr == nil || notifications.Classify(lastErr) != notifications.OutcomePermanentFailure {
		lastErr = notifications.Transient(errors.Join(ErrAllGatewaysFailed, lastErr))
	}
	return c.finish(attempt, tried, len(tried)-1, lastErr)
}

// finish names tried[primary] as the attempt's gateway and every other tried
// gateway, in order, as a fallback.
func (c *Chain) finish(attempt notifications.DeliveryAttempt, tried []notifications.GatewayAttempt, primary int, err error) notifications.DeliveryAttempt {
	if primary >= 0 && primary < len(tried) {
		attempt.Gateway = tried[primary].Gateway
		for i, t := range tried {
			if i != primary {
				attempt.Fallbacks = append(attempt.Fallbacks, t)
			}
		}
	}
	if err != nil {
		return attempt.Fail(err)
	}
	return attempt.Succeed()
}

// lastResort is implemented by gateways that still run after another gateway
// reported the recipient as unreachable.
type lastResort interface {
	LastResort() bool
}

func isLastResort(g Gateway) bool {
	lr, ok := g.(lastResort)
	return ok && lr.LastResort()
}

// ComposeText renders msg as a WhatsApp text body.
func ComposeText(name string, msg notifications.Message) string {
	var b strings.Builder
	if name != "" {
		b.WriteString("Hi ")
		b.WriteString(name)
		b.WriteString(",\n\n")
	}
	b.WriteString("*")
	b.WriteString(msg.Title)
	b.WriteString("*\n")
	b.WriteString(msg.Body)
	if msg.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(msg.URL)
	}
	return b.String()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
