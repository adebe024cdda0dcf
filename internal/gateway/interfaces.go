package gateway

import (
	"context"
	"io"
)

// Gateway is the remote session store the client synchronizes against.
// Every call is a fallible round-trip; none of them is retried by callers.
type Gateway interface {
	ListSessions(ctx context.Context) ([]RemoteSession, error)
	CreateSession(ctx context.Context) (*CreatedSession, error)
	SelectSession(ctx context.Context, sessionID string) (*SelectedSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	RenameSession(ctx context.Context, sessionID, title string) error
	DeleteDocument(ctx context.Context, sessionID, docID string) error
	UploadDocument(ctx context.Context, sessionID, fileName string, content io.Reader) (*UploadedDocument, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}
