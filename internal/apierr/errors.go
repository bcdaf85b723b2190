// Package apierr defines the structured error kinds reified at the
// module boundary between the core packages and the HTTP layer.
package apierr

import "fmt"

// Kind classifies an error the way the HTTP layer needs to map it to a
// status code.
type Kind string

const (
	// KindNotFound is a missing index, dataset, entity, or adjacency property.
	KindNotFound Kind = "NOT_FOUND"
	// KindIndexNotReady means the underlying index is absent when a query
	// expected it — distinguishes a misconfigured prefix from a still-ingesting
	// first boot.
	KindIndexNotReady Kind = "INDEX_NOT_READY"
	// KindInvalid is a malformed query, invalid schema/algorithm name, or
	// out-of-range paging.
	KindInvalid Kind = "INVALID"
	// KindInternal is every other backend/transport error.
	KindInternal Kind = "INTERNAL"
)

// ScreenError is the structured error type threaded from core packages up
// to the HTTP handlers.
type ScreenError struct {
	Kind    Kind
	Message string
	Detail  string
	Cause   error
}

func (e *ScreenError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ScreenError) Unwrap() error { return e.Cause }

// Is enables errors.Is to match by kind.
func (e *ScreenError) Is(target error) bool {
	t, ok := target.(*ScreenError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, message string, cause error) *ScreenError {
	return &ScreenError{Kind: kind, Message: message, Cause: cause}
}

// NotFound builds a KindNotFound error.
func NotFound(message string) *ScreenError { return newErr(KindNotFound, message, nil) }

// IndexNotReady builds a KindIndexNotReady error.
func IndexNotReady(message string, cause error) *ScreenError {
	return newErr(KindIndexNotReady, message, cause)
}

// Invalid builds a KindInvalid error with a human-readable detail.
func Invalid(message string) *ScreenError { return newErr(KindInvalid, message, nil) }

// Internal wraps an unexpected error.
func Internal(message string, cause error) *ScreenError {
	return newErr(KindInternal, message, cause)
}

// WithDetail attaches a caller-facing detail string and returns the error
// for chaining.
func (e *ScreenError) WithDetail(detail string) *ScreenError {
	e.Detail = detail
	return e
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// errors that aren't a *ScreenError.
func KindOf(err error) Kind {
	var se *ScreenError
	if As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// As is a tiny local errors.As wrapper kept here so callers don't need to
// import errors just to unwrap a ScreenError.
func As(err error, target **ScreenError) bool {
	for err != nil {
		if se, ok := err.(*ScreenError); ok {
			*target = se
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
