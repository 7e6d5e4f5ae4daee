package session

import "errors"

var (
	// ErrUnauthenticated means the request carries no usable session cookie.
	ErrUnauthenticated = errors.New("not authenticated")
	ErrMissingSecret   = errors.New("signed sessions require a secret")
	ErrMissingSubject  = errors.New("session token has no subject")
)
