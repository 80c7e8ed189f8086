package whatsapp

import (
	"context"
	"log/slog"
)

// ManualGateway logs the composed message so a person can relay it by hand.
// It always succeeds.
type ManualGateway struct {
	logger *slog.Logger
}

func NewManualGateway(log *slog.Logger) *ManualGateway {
	if log == nil {
		log = slog.Default()
	}
	return &ManualGateway{logger: log}
}

func (g *ManualGateway) Name() string     { return "manual" }
func (g *ManualGateway) Configured() bool { return true }
func (g *ManualGateway) LastResort() bool { return true }

func (g *ManualGateway) Send(ctx context.Context, to, text string) error {
	g.logger.LogAttrs(ctx, slog.LevelWarn, "whatsapp message requires manual delivery",
		slog.String("to", to),
		slog.String("message", text),
	)
	return nil
}
