package types

import "errors"

var (
	// ErrInvalidInput indicates a missing or malformed request field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedSource indicates the URL does not match a recognized video URL shape.
	ErrUnsupportedSource = errors.New("unsupported source url")

	// ErrRenditionNotFound indicates the requested itag is not offered for the source.
	ErrRenditionNotFound = errors.New("rendition not found")
)

// InvalidInputError is a caller-correctable request failure carrying the
// message shown to clients. It matches ErrInvalidInput under errors.Is.
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// FailureReason classifies an upstream or relay failure.
type FailureReason string

const (
	ReasonUnavailable FailureReason = "unavailable"
	ReasonPrivate     FailureReason = "private"
	ReasonRestricted  FailureReason = "restricted"
	ReasonRateLimited FailureReason = "rate_limited"
	ReasonCopyright   FailureReason = "copyright"
	ReasonTimeout     FailureReason = "timeout"
	ReasonStream      FailureReason = "stream_failure"
	ReasonUnknown     FailureReason = "unknown"
)

// ResolveError wraps an upstream failure with a classified reason and the
// message shown to clients. The raw cause stays server side.
type ResolveError struct {
	Reason  FailureReason
	Message string
	Cause   error
}

func (e *ResolveError) Error() string { return e.Message }

func (e *ResolveError) Unwrap() error { return e.Cause }
