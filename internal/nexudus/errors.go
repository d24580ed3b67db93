package nexudus

import "errors"

// Upstream failure taxonomy. Retry policy keys off these sentinels via
// errors.Is: auth failures are permanent, rate limiting and transient
// faults are worth another attempt.
var (
	ErrAuth        = errors.New("nexudus: authentication failed")
	ErrRateLimited = errors.New("nexudus: rate limited")
	ErrTransient   = errors.New("nexudus: transient upstream error")
	ErrNotFound    = errors.New("nexudus: not found")
)

// RetryableErrors is the sentinel list handed to pkg/retry.
var RetryableErrors = []error{ErrRateLimited, ErrTransient}
