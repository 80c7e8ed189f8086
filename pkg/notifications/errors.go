package notifications

import "errors"

var (
	ErrInvalidPayload       = errors.New("invalid notification payload")
	ErrNoPathAvailable      = errors.New("no delivery path available for channel")
	ErrInvalidChannel       = errors.New("invalid channel")
	ErrEmptyEndpoint        = errors.New("endpoint key is empty")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrTransient            = errors.New("transient delivery failure")
	ErrPermanent            = errors.New("permanent delivery failure")
)

// Permanent marks err as a permanent failure for the endpoint.
func Permanent(err error) error {
	if err == nil {
		return ErrPermanent
	}
	return errors.Join(ErrPermanent, err)
}

// Transient marks err as retryable on a later event.
func Transient(err error) error {
	if err == nil {
		return ErrTransient
	}
	return errors.Join(ErrTransient, err)
}

// Classify maps an adapter error to an outcome. nil is sent; ErrPermanent is
// permanent; everything else, including deadline overruns, is transient.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSent
	case errors.Is(err, ErrPermanent):
		return OutcomePermanentFailure
	default:
		return OutcomeTransientFailure
	}
}
