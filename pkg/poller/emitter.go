package poller

import (
	"context"
	"log/slog"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
)

// Emitter surfaces a local notification.
type Emitter interface {
	Emit(ctx context.Context, n LocalNotification) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, n LocalNotification) error

func (f EmitterFunc) Emit(ctx context.Context, n LocalNotification) error {
	return f(ctx, n)
}

// LogEmitter writes each notification to the log.
type LogEmitter struct {
	log *slog.Logger
}

func NewLogEmitter(log *slog.Logger) *LogEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &LogEmitter{log: log}
}

func (e *LogEmitter) Emit(ctx context.Context, n LocalNotification) error {
	e.log.LogAttrs(ctx, slog.LevelInfo, n.Title,
		logger.Component("poller"),
		slog.String("body", n.Body),
		slog.String("tag", n.Tag),
		slog.String("record_id", n.Record.ID),
	)
	return nil
}
