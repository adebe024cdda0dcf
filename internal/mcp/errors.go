package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/neosearch/internal/domain/message"
	"github.com/ganot/neosearch/internal/domain/search"
	"github.com/ganot/neosearch/internal/domain/session"
	"github.com/ganot/neosearch/internal/domain/upload"
	"github.com/ganot/neosearch/internal/gateway"
)

// ErrInvalidParams is returned for tool arguments that cannot be used.
var ErrInvalidParams = errors.New("invalid params")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrInvalidParams):
		return &APIError{Code: "INVALID_PARAMS", Message: err.Error(), RecoveryHint: "Check the tool input schema"}
	case errors.Is(err, session.ErrSessionNotFound):
		return &APIError{Code: "SESSION_NOT_FOUND", Message: "chat window not found", RecoveryHint: "Call list_sessions for current ids"}
	case errors.Is(err, session.ErrDocumentNotFound):
		return &APIError{Code: "DOCUMENT_NOT_FOUND", Message: "document not found", RecoveryHint: "Call list_documents for current ids"}
	case errors.Is(err, session.ErrNoActiveSession):
		return &APIError{Code: "NO_ACTIVE_SESSION", Message: "no chat window is active", RecoveryHint: "Call create_session or select_session"}
	case errors.Is(err, session.ErrSuperseded):
		return &APIError{Code: "SUPERSEDED", Message: "a newer selection replaced this one"}
	case errors.Is(err, upload.ErrUploadBusy):
		return &APIError{Code: "UPLOAD_BUSY", Message: "an upload is already running for this chat window", RecoveryHint: "Wait for the running upload to finish"}
	case errors.Is(err, message.ErrMessageNotFound):
		return &APIError{Code: "MESSAGE_NOT_FOUND", Message: "message not in the visible conversation", RecoveryHint: "Call get_messages for current ids"}
	case errors.Is(err, gateway.ErrUnauthorized):
		return &APIError{Code: "UNAUTHORIZED", Message: err.Error(), RecoveryHint: "Check NEOSEARCH_TOKEN"}
	case errors.Is(err, search.ErrSearchFailed),
		errors.Is(err, session.ErrHydrateFailed),
		errors.Is(err, session.ErrCreateFailed),
		errors.Is(err, session.ErrSelectFailed),
		errors.Is(err, session.ErrDeleteFailed),
		errors.Is(err, session.ErrDocumentDeleteFailed):
		return &APIError{Code: "BACKEND_FAILED", Message: err.Error(), RecoveryHint: "Check that the NeoSearch backend is reachable and retry"}
	default:
		return nil
	}
}
