package session

import "errors"

var (
	// ErrHydrateFailed indicates the remote session list could not be fetched.
	ErrHydrateFailed = errors.New("session list fetch failed")
	// ErrCreateFailed indicates the remote store did not create a session.
	ErrCreateFailed = errors.New("session create failed")
	// ErrSelectFailed indicates the remote document set could not be fetched.
	ErrSelectFailed = errors.New("session select failed")
	// ErrDeleteFailed indicates the remote store did not delete the session.
	ErrDeleteFailed = errors.New("session delete failed")
	// ErrRenameFailed indicates a title correction was rejected. It is only logged.
	ErrRenameFailed = errors.New("session rename failed")
	// ErrDocumentDeleteFailed indicates the remote store did not delete the document.
	ErrDocumentDeleteFailed = errors.New("document delete failed")
	// ErrSessionNotFound indicates the session is not in the local collection.
	ErrSessionNotFound = errors.New("session not found")
	// ErrDocumentNotFound indicates the document is not in the session.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrNoActiveSession indicates an operation needs an active session.
	ErrNoActiveSession = errors.New("no active session")
	// ErrSuperseded indicates a newer view intent won and this result was discarded.
	ErrSuperseded = errors.New("superseded by a newer selection")
)
