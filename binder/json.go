package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

const defaultMaxBody = 1 << 20

type jsonConfig struct {
	strict  bool
	maxBody int64
}

// JSONOption configures BindJSON.
type JSONOption func(*jsonConfig)

// AllowUnknownFields accepts payloads carrying fields the target does not
// declare. Used for third-party webhooks whose schema we do not own.
func AllowUnknownFields() JSONOption {
	return func(c *jsonConfig) { c.strict = false }
}

// WithMaxBody limits how many bytes are read from the body.
func WithMaxBody(n int64) JSONOption {
	return func(c *jsonConfig) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// BindJSON decodes an application/json body into v. By default unknown fields
// are rejected and the body must hold exactly one JSON value.
//
//	r.Post("/notify/send", handler.Wrap(sendHandler,
//		handler.WithBinder[handler.Context, SendRequest](binder.BindJSON()),
//	))
func BindJSON(opts ...JSONOption) func(r *http.Request, v any) error {
	cfg := jsonConfig{strict: true, maxBody: defaultMaxBody}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(r *http.Request, v any) error {
		ct := r.Header.Get("Content-Type")
		if ct == "" {
			return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
		}
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, ct)
		}

		body := http.MaxBytesReader(nil, r.Body, cfg.maxBody)
		dec := json.NewDecoder(body)
		if cfg.strict {
			dec.DisallowUnknownFields()
		}

		if err := dec.Decode(v); err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				return fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, cfg.maxBody)
			case errors.Is(err, io.EOF):
				return fmt.Errorf("%w: empty body", ErrInvalidJSON)
			default:
				return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
			}
		}

		var extra json.RawMessage
		if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: unexpected data after JSON value", ErrInvalidJSON)
		}
		return nil
	}
}
