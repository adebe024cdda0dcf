package mcp

import (
	"time"

	"github.com/ganot/neosearch/internal/domain/activity"
	"github.com/ganot/neosearch/internal/domain/message"
	"github.com/ganot/neosearch/internal/domain/session"
)

type SessionIDParams struct {
	SessionID string `json:"session_id"`
}

type RenameSessionParams struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
}

type ListDocumentsParams struct {
	SessionID string `json:"session_id,omitempty"`
}

type InlineFile struct {
	Name string `json:"name"`
	// Content is base64 encoded.
	Content string `json:"content"`
}

type UploadDocumentsParams struct {
	Paths []string     `json:"paths,omitempty"`
	Files []InlineFile `json:"files,omitempty"`
}

type DeleteDocumentParams struct {
	SessionID string `json:"session_id,omitempty"`
	DocID     string `json:"doc_id"`
}

type AskParams struct {
	Question string `json:"question"`
}

type GetEvidenceParams struct {
	MessageID string `json:"message_id"`
}

type GetRecentActivityParams struct {
	SessionID string                 `json:"session_id,omitempty"`
	Type      *activity.ActivityType `json:"type,omitempty"`
	Limit     int                    `json:"limit,omitempty"`
	Offset    int                    `json:"offset,omitempty"`
}

type SessionResponse struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	IsActive  bool               `json:"is_active"`
	Documents []session.Document `json:"documents"`
}

type DeleteSessionResponse struct {
	Deleted  string            `json:"deleted"`
	ActiveID string            `json:"active_id,omitempty"`
	Sessions []SessionResponse `json:"sessions"`
}

type RenameSessionResponse struct {
	Session SessionResponse `json:"session"`
	Applied bool            `json:"applied"`
}

type DocumentsResponse struct {
	SessionID string             `json:"session_id"`
	Documents []session.Document `json:"documents"`
}

type FailedFile struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type UploadResponse struct {
	SessionID string             `json:"session_id,omitempty"`
	Uploaded  []session.Document `json:"uploaded"`
	Failed    []FailedFile       `json:"failed"`
	RenamedTo string             `json:"renamed_to,omitempty"`
	Skipped   string             `json:"skipped,omitempty"`
}

type AskResponse struct {
	MessageID string          `json:"message_id,omitempty"`
	Answer    string          `json:"answer,omitempty"`
	Evidence  []message.Chunk `json:"evidence,omitempty"`
	Skipped   string          `json:"skipped,omitempty"`
}

type MessageResponse struct {
	ID            string         `json:"id"`
	Sender        message.Sender `json:"sender"`
	Text          string         `json:"text"`
	EvidenceCount int            `json:"evidence_count"`
	CreatedAt     time.Time      `json:"created_at"`
}

type ConversationResponse struct {
	SessionID string            `json:"session_id"`
	Messages  []MessageResponse `json:"messages"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	SessionID string                `json:"session_id,omitempty"`
	Summary   string                `json:"summary"`
	Details   string                `json:"details,omitempty"`
}

func toSessionResponse(s session.Session) SessionResponse {
	docs := s.Documents
	if docs == nil {
		docs = []session.Document{}
	}
	return SessionResponse{ID: s.ID, Title: s.Title, IsActive: s.IsActive, Documents: docs}
}

func toSessionResponses(sessions []session.Session) []SessionResponse {
	resp := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, toSessionResponse(s))
	}
	return resp
}
