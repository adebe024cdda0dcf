package session

import (
	"context"

	"github.com/ganot/neosearch/internal/domain/activity"
	"github.com/ganot/neosearch/internal/gateway"
)

// Gateway is the part of the remote store the session store talks to.
type Gateway interface {
	ListSessions(ctx context.Context) ([]gateway.RemoteSession, error)
	CreateSession(ctx context.Context) (*gateway.CreatedSession, error)
	SelectSession(ctx context.Context, sessionID string) (*gateway.SelectedSession, error)
	DeleteSession(ctx context.Context, sessionID string) error
	RenameSession(ctx context.Context, sessionID, title string) error
	DeleteDocument(ctx context.Context, sessionID, docID string) error
}

// Conversation is the active session's message log.
type Conversation interface {
	Reset(owner string)
}

// ActivityRecorder journals sync outcomes.
type ActivityRecorder interface {
	Record(ctx context.Context, typ activity.ActivityType, sessionID, summary string)
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, activity.ActivityType, string, string) {}

type noopConversation struct{}

func (noopConversation) Reset(string) {}
