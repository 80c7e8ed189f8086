package handler

import (
	"log/slog"
	"net/http"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
	"github.com/iamusmankhan101/visioncare/pkg/requestid"
)

// NewErrorHandler logs the error (warn for 4xx, error for 5xx) and writes the
// JSON error envelope. Internal error messages never reach the client.
func NewErrorHandler(log *slog.Logger) ErrorHandler[Context] {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx Context, err error) {
		r := ctx.Request()
		resp := JSONError(err)
		status := StatusOf(err)

		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.LogAttrs(r.Context(), level, "request error",
			logger.RequestID(requestid.FromContext(r.Context())),
			logger.Error(err),
			slog.Int("status_code", status),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			logger.Component("http"),
		)

		if renderErr := resp.Render(ctx.ResponseWriter(), r); renderErr != nil {
			log.LogAttrs(r.Context(), slog.LevelError, "failed to render error response", logger.Error(renderErr))
		}
	}
}
