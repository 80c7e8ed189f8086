package email

import (
	"errors"
	"fmt"
)

var (
	ErrFailedToSendEmail = errors.New("failed to send email")
	ErrInvalidConfig     = errors.New("invalid email config")
)

// Postmark API error codes that mean the recipient will never accept mail.
const (
	postmarkInvalidEmailRequest = 300
	postmarkInactiveRecipient   = 406
)

// PostmarkError is a non-zero ErrorCode returned by the Postmark API.
type PostmarkError struct {
	Code    int64
	Message string
}

func (e *PostmarkError) Error() string {
	return fmt.Sprintf("postmark error %d: %s", e.Code, e.Message)
}

// IsPermanent reports whether err is a Postmark rejection tied to the
// recipient address.
func IsPermanent(err error) bool {
	var pe *PostmarkError
	if !errors.As(err, &pe) {
		return false
	}
	return pe.Code == postmarkInvalidEmailRequest || pe.Code == postmarkInactiveRecipient
}
