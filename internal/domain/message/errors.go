package message

import "errors"

var (
	// ErrMessageNotFound indicates the message is not in the current log.
	ErrMessageNotFound = errors.New("message not found")
)
