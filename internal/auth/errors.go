package auth

import "fmt"

type ErrorKind int

const (
	// KindMissingCredentials means the client id or secret is not configured.
	KindMissingCredentials ErrorKind = iota + 1
	// KindRejected means the authority answered with a non-success status.
	KindRejected
	// KindMalformed means the authority answered without a usable token.
	KindMalformed
	// KindTransport means the authority could not be reached.
	KindTransport
)

// Error is returned by token providers
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}
