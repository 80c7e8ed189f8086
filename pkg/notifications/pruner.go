package notifications

import (
	"context"
	"log/slog"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
)

// Remover deletes subscriptions. *Registry implements it.
type Remover interface {
	Remove(ctx context.Context, channel Channel, endpointKey string) (bool, error)
}

// Pruner removes endpoints whose delivery failed permanently.
type Pruner struct {
	subs   Remover
	logger *slog.Logger
}

func NewPruner(subs Remover, l *slog.Logger) *Pruner {
	if l == nil {
		l = slog.Default()
	}
	return &Pruner{subs: subs, logger: l}
}

// Apply removes every endpoint with a permanent outcome and returns how many
// records were actually deleted. Store errors are logged and skipped.
func (p *Pruner) Apply(ctx context.Context, attempts []DeliveryAttempt) int {
	seen := make(map[subscriptionKey]struct{})
	removed := 0
	for _, a := range attempts {
		if !a.Permanent() {
			continue
		}
		key := subscriptionKey{channel: a.Channel, endpoint: a.EndpointKey}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		ok, err := p.subs.Remove(ctx, a.Channel, a.EndpointKey)
		if err != nil {
			p.logger.LogAttrs(ctx, slog.LevelError, "failed to prune subscription",
				logger.Channel(string(a.Channel)),
				logger.Endpoint(a.EndpointKey),
				logger.Error(err),
			)
			continue
		}
		if ok {
			removed++
			p.logger.LogAttrs(ctx, slog.LevelInfo, "pruned dead subscription",
				logger.Channel(string(a.Channel)),
				logger.Endpoint(a.EndpointKey),
				slog.String("reason", a.Error),
			)
		}
	}
	return removed
}
