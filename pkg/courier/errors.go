package courier

import (
	"errors"
	"fmt"
)

// Kind classifies courier errors so the reconciliation engine can decide
// whether to abort the run, skip the item, or retry.
type Kind string

const (
	// KindAuth means credentials were rejected. Fatal for the whole run.
	KindAuth Kind = "auth"

	// KindNotFound means the courier does not know the tracking id. This is
	// an expected state for freshly created shipments, not a failure.
	KindNotFound Kind = "not_found"

	// KindTransient covers timeouts, connection failures and 5xx responses.
	// The affected item is skipped and re-attempted on the next pass.
	KindTransient Kind = "transient"

	// KindInvalid means the request itself was malformed or rejected.
	KindInvalid Kind = "invalid"
)

// Error represents a classified error from a courier API.
type Error struct {
	Courier    string
	Kind       Kind
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Courier, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Courier, e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for Error, matching on Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewError creates a classified courier error.
func NewError(courier string, kind Kind, message string) *Error {
	return &Error{Courier: courier, Kind: kind, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithStatusCode adds an HTTP status code to the error.
func (e *Error) WithStatusCode(code int) *Error {
	e.StatusCode = code
	return e
}

// Sentinel errors for the registry.
var (
	// ErrCourierNotFound indicates the requested courier is not registered.
	ErrCourierNotFound = errors.New("courier not found")
)

func kindOf(err error) (Kind, bool) {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind, true
	}
	return "", false
}

// IsAuth reports whether err is a credential failure.
func IsAuth(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindAuth
}

// IsNotFound reports whether err means the tracking id is unknown remotely.
func IsNotFound(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotFound
}

// IsTransient reports whether err is worth re-attempting on a later pass.
func IsTransient(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTransient
}
