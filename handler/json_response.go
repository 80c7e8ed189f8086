package handler

import (
	"encoding/json"
	"errors"
	"maps"
	"net/http"

	"github.com/iamusmankhan101/visioncare/binder"
	"github.com/iamusmankhan101/visioncare/pkg/validator"
)

// ErrorResponse is the envelope for every error body.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

type jsonResponse struct {
	status int
	body   any
}

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

type JSONOption func(*jsonResponse)

func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

// JSON renders v as the response body with status 200 unless overridden.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: v}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err inside the error envelope with a status derived from
// its type.
func JSONError(err error, opts ...JSONOption) Response {
	status, detail := classify(err)
	r := &jsonResponse{status: status, body: ErrorResponse{Error: detail}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StatusOf reports the status JSONError would use for err.
func StatusOf(err error) int {
	status, _ := classify(err)
	return status
}

func classify(err error) (int, ErrorDetail) {
	var (
		valErr  ValidationError
		httpErr HTTPError
	)
	switch {
	case errors.As(err, &valErr):
		d := ErrorDetail{Code: "validation_error", Message: valErr.Error()}
		if len(valErr) > 0 {
			d.Details = make(map[string][]string, len(valErr))
			maps.Copy(d.Details, valErr)
		}
		return http.StatusBadRequest, d
	case validator.IsValidationError(err):
		return classify(FromValidator(validator.ExtractValidationErrors(err)))
	case errors.As(err, &httpErr):
		return httpErr.Code, ErrorDetail{Code: httpErr.Key, Message: http.StatusText(httpErr.Code)}
	case errors.Is(err, binder.ErrMissingContentType), errors.Is(err, binder.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, ErrorDetail{Code: ErrUnsupportedMediaType.Key, Message: err.Error()}
	case errors.Is(err, binder.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, ErrorDetail{Code: ErrRequestTooLarge.Key, Message: err.Error()}
	case errors.Is(err, binder.ErrInvalidJSON):
		return http.StatusBadRequest, ErrorDetail{Code: "invalid_json", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorDetail{Code: ErrInternalServerError.Key, Message: http.StatusText(http.StatusInternalServerError)}
	}
}
