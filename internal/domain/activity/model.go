package activity

import "time"

// ActivityType represents the kind of sync outcome being journaled
type ActivityType string

const (
	TypeSessionsHydrated    ActivityType = "sessions_hydrated"
	TypeSessionCreated      ActivityType = "session_created"
	TypeSessionSelected     ActivityType = "session_selected"
	TypeSessionDeleted      ActivityType = "session_deleted"
	TypeSessionRenamed      ActivityType = "session_renamed"
	TypeSelectionSuperseded ActivityType = "selection_superseded"
	TypeDocumentUploaded    ActivityType = "document_uploaded"
	TypeUploadFailed        ActivityType = "upload_failed"
	TypeDocumentDeleted     ActivityType = "document_deleted"
	TypeSearched            ActivityType = "searched"
	TypeSearchFailed        ActivityType = "search_failed"
	TypeOperationFailed     ActivityType = "operation_failed"
)

// ActivityEntry represents an event in the local activity journal
type ActivityEntry struct {
	ID           int64        `json:"id"`
	SessionID    *string      `json:"session_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}
