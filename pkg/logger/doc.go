// Package logger builds *slog.Logger instances for the notification service.
//
// New applies a set of Option values (output format, level, static attributes,
// context extractors) and wraps the resulting handler with LogHandlerDecorator,
// which copies request-scoped values such as the request id into every record
// logged with a context.
//
// Attribute helpers (Channel, SubscriptionID, DedupKey, Outcome, Error, ...)
// keep key names consistent across packages:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "notifyd"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "delivery attempt",
//	    logger.Channel("web_push"),
//	    logger.Outcome("sent"),
//	)
//
// Error and Errors return an empty attribute for nil errors, so callers can
// pass them without a nil check.
package logger
