package search

import (
	"context"

	"github.com/ganot/neosearch/internal/domain/activity"
	"github.com/ganot/neosearch/internal/domain/message"
	"github.com/ganot/neosearch/internal/domain/session"
	"github.com/ganot/neosearch/internal/gateway"
)

// Gateway runs a query against the remote store.
type Gateway interface {
	Search(ctx context.Context, req gateway.SearchRequest) (*gateway.SearchResponse, error)
}

// Sessions resolves the session a query targets.
type Sessions interface {
	Active() (session.Session, error)
}

// Conversation is the active session's message log.
type Conversation interface {
	Append(sessionID string, sender message.Sender, text string, evidence []message.Chunk) (message.Message, bool)
	Evidence(messageID string) ([]message.Chunk, error)
}

// ActivityRecorder journals search outcomes.
type ActivityRecorder interface {
	Record(ctx context.Context, typ activity.ActivityType, sessionID, summary string)
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, activity.ActivityType, string, string) {}
