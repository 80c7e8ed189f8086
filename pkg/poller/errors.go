package poller

import "errors"

var (
	ErrAlreadyStarted = errors.New("poller: already started")
	ErrStopped        = errors.New("poller: stopped")
	ErrCycleInFlight  = errors.New("poller: check already in progress")
	ErrCountFailed    = errors.New("poller: failed to read record count")
	ErrFetchFailed    = errors.New("poller: failed to fetch latest records")
	ErrEmitFailed     = errors.New("poller: failed to emit notification")
)
