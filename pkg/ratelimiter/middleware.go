package ratelimiter

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/clientip"
	"github.com/iamusmankhan101/visioncare/pkg/logger"
)

// KeyFunc extracts the bucket key from a request. An empty key skips the
// limiter.
type KeyFunc func(r *http.Request) string

// ByClientIP keys buckets by the resolved client address.
func ByClientIP(r *http.Request) string {
	if ip := clientip.FromContext(r.Context()); ip != "" {
		return ip
	}
	return clientip.FromRequest(r)
}

type middlewareConfig struct {
	onLimited func(w http.ResponseWriter, r *http.Request, res Result)
	logger    *slog.Logger
	now       func() time.Time
}

type MiddlewareOption func(*middlewareConfig)

// WithLimitedHandler renders the response for denied requests. Rate limit
// headers are already set when it runs.
func WithLimitedHandler(fn func(w http.ResponseWriter, r *http.Request, res Result)) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.onLimited = fn
		}
	}
}

func WithMiddlewareLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Middleware denies requests once their bucket is empty. Store failures let
// the request through.
func Middleware(l *Limiter, key KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		onLimited: func(w http.ResponseWriter, _ *http.Request, _ Result) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := l.Allow(r.Context(), k)
			if err != nil {
				cfg.logger.LogAttrs(r.Context(), slog.LevelWarn, "rate limiter unavailable",
					logger.Component("ratelimiter"),
					logger.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				if wait := res.RetryAfter(cfg.now()); wait > 0 {
					h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				}
				cfg.onLimited(w, r, res)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
