package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBody = 64 * 1024

// Response is what came back from a single POST.
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Sender posts JSON payloads to third-party HTTP APIs. Each call is a single
// attempt; callers decide what to do with the classified error.
type Sender struct {
	client *http.Client
}

func NewSender() *Sender {
	return &Sender{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// NewSenderWithClient uses client for all calls. Nil falls back to NewSender.
func NewSenderWithClient(client *http.Client) *Sender {
	if client == nil {
		return NewSender()
	}
	return &Sender{client: client}
}

// Post marshals data to JSON and POSTs it to target.
//
// Non-2xx responses are returned together with an error wrapping
// ErrPermanentFailure (4xx except 408, 425, 429) or ErrTemporaryFailure, so
// callers can still inspect the provider's error body.
func (s *Sender) Post(ctx context.Context, target string, data any, opts ...SendOption) (Response, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Response{}, errors.Join(ErrInvalidPayload, err)
	}
	if err := validate(target, payload); err != nil {
		return Response{}, err
	}

	o := defaultSendOptions()
	for _, opt := range opts {
		opt(o)
	}

	client := s.client
	if o.httpClient != nil {
		client = o.httpClient
	}

	if o.circuitBreaker != nil && !o.circuitBreaker.Allow() {
		return Response{}, ErrCircuitOpen
	}

	resp, err := s.do(ctx, client, target, payload, o)
	if o.circuitBreaker != nil {
		switch {
		case err == nil:
			o.circuitBreaker.RecordSuccess()
		case !IsPermanent(err):
			o.circuitBreaker.RecordFailure()
		}
	}
	return resp, err
}

func (s *Sender) do(ctx context.Context, client *http.Client, target string, payload []byte, o *sendOptions) (Response, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return Response{}, errors.Join(ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "visioncare-notify/1.0")
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}
	if o.signatureSecret != "" {
		sig, err := SignPayload(o.signatureSecret, payload)
		if err != nil {
			return Response{}, err
		}
		sig.Apply(req.Header)
	}

	httpResp, err := client.Do(req)
	if err != nil {
		r := Response{Duration: time.Since(start)}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return r, fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return r, fmt.Errorf("%w: %w", ErrTemporaryFailure, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	r := Response{StatusCode: httpResp.StatusCode, Body: body, Duration: time.Since(start)}

	if r.StatusCode >= 200 && r.StatusCode < 300 {
		return r, nil
	}

	msg := fmt.Sprintf("status %d", r.StatusCode)
	if len(body) > 0 {
		snippet := strings.ReplaceAll(string(body), "\n", " ")
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		msg += ": " + snippet
	}
	if isPermanentStatus(r.StatusCode) {
		return r, fmt.Errorf("%w: %s", ErrPermanentFailure, msg)
	}
	return r, fmt.Errorf("%w: %s", ErrTemporaryFailure, msg)
}

func validate(target string, payload []byte) error {
	if target == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	return nil
}

// 408, 425 and 429 may clear up on their own.
func isPermanentStatus(code int) bool {
	if code < 400 || code >= 500 {
		return false
	}
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}
