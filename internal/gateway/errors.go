package gateway

import "errors"

var (
	// ErrNotFound is returned when the remote store has no such session or document
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the remote store rejects the credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable is returned for network failures and server-side errors
	ErrUnavailable = errors.New("remote store unavailable")

	// ErrBadResponse is returned when a response cannot be decoded
	ErrBadResponse = errors.New("malformed response")

	// ErrRejected is returned for other 4xx responses, such as validation errors
	ErrRejected = errors.New("request rejected")
)
