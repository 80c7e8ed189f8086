package webhook

import (
	"net/http"
	"time"
)

// SendOption configures a single Post call.
type SendOption func(*sendOptions)

type sendOptions struct {
	timeout         time.Duration
	headers         map[string]string
	signatureSecret string
	circuitBreaker  *CircuitBreaker
	httpClient      *http.Client
}

func defaultSendOptions() *sendOptions {
	return &sendOptions{
		timeout: 10 * time.Second,
		headers: make(map[string]string),
	}
}

func WithTimeout(timeout time.Duration) SendOption {
	return func(o *sendOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

func WithHeader(key, value string) SendOption {
	return func(o *sendOptions) { o.headers[key] = value }
}

// WithBearerToken sets the Authorization header.
func WithBearerToken(token string) SendOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// WithSignature signs the body with HMAC-SHA256 and adds the X-Webhook-* headers.
func WithSignature(secret string) SendOption {
	return func(o *sendOptions) { o.signatureSecret = secret }
}

func WithHTTPClient(client *http.Client) SendOption {
	return func(o *sendOptions) { o.httpClient = client }
}

// WithCircuitBreaker short-circuits calls while the breaker is open and feeds
// it the outcome of each call. Permanent failures do not count against the
// endpoint's health.
func WithCircuitBreaker(cb *CircuitBreaker) SendOption {
	return func(o *sendOptions) { o.circuitBreaker = cb }
}
