// Package errorsx attaches short machine-readable reason codes to errors.
// The synthesis pipeline uses them to tell a missing credential apart from a
// transport failure or a malformed provider response when building the
// diagnostic trail.
package errorsx

import "errors"

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonCredentialMissing ReasonCode = "credential_missing"
	ReasonTransport         ReasonCode = "transport"
	ReasonMalformedResponse ReasonCode = "malformed_response"
	ReasonRateLimit         ReasonCode = "rate_limit"
	ReasonBreakerOpen       ReasonCode = "breaker_open"
	ReasonInvalidInput      ReasonCode = "invalid_input"
	ReasonNotFound          ReasonCode = "not_found"
)

// ReasonedError wraps an error with a reason code.
type ReasonedError struct {
	Err    error
	Reason ReasonCode
}

func (e ReasonedError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return e.Err.Error()
}

func (e ReasonedError) Unwrap() error {
	return e.Err
}

// Wrap attaches a reason code to an error (no-op if err is nil or already reasoned).
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return err
	}
	return ReasonedError{Err: err, Reason: reason}
}

// New builds a reasoned error from a plain message.
func New(msg string, reason ReasonCode) error {
	return ReasonedError{Err: errors.New(msg), Reason: reason}
}

// Reason extracts a reason code from an error, if present.
func Reason(err error) ReasonCode {
	if err == nil {
		return ReasonUnknown
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonUnknown
}

// HasReason returns true if err carries the given reason code.
func HasReason(err error, reason ReasonCode) bool {
	return Reason(err) == reason
}
