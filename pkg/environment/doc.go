// Package environment propagates the deployment environment (development,
// staging, production) through context.Context and HTTP requests.
//
// Parse turns the APP_ENV value into an Environment. Middleware stores it on
// every request context, FromContext and the Is* predicates read it back, and
// LoggerExtractor exposes it to the slog decorator in pkg/logger.
package environment
