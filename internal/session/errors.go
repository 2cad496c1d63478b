package session

import (
	"errors"
	"fmt"
)

// ErrAccessDenied is returned by Login when the account is not an administrator.
var ErrAccessDenied = errors.New("access denied: admin privileges required")

// ErrInvalidSession is returned by the profile call for any non-success response.
var ErrInvalidSession = errors.New("session is no longer valid")

const defaultLoginFailure = "Login failed"

// LoginError is a failed credential exchange. Message is the server's message
// when it sent one.
type LoginError struct {
	Status  int
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

func newLoginError(status int, message string, err error) *LoginError {
	if message == "" {
		message = defaultLoginFailure
	}
	return &LoginError{Status: status, Message: message, Err: err}
}
