package upload

import (
	"context"
	"io"

	"github.com/ganot/neosearch/internal/domain/activity"
	"github.com/ganot/neosearch/internal/domain/message"
	"github.com/ganot/neosearch/internal/domain/session"
	"github.com/ganot/neosearch/internal/gateway"
)

// Gateway uploads one document to the remote store.
type Gateway interface {
	UploadDocument(ctx context.Context, sessionID, fileName string, content io.Reader) (*gateway.UploadedDocument, error)
}

// Sessions is the session store surface the coordinator commits through.
type Sessions interface {
	Active() (session.Session, error)
	LockSession(sessionID string) func()
	Documents(sessionID string) ([]session.Document, error)
	AddDocument(sessionID string, doc session.Document) (bool, error)
	RenameInBackground(ctx context.Context, sessionID, title string)
}

// Conversation receives confirmation and failure messages.
type Conversation interface {
	Append(sessionID string, sender message.Sender, text string, evidence []message.Chunk) (message.Message, bool)
}

// ActivityRecorder journals upload outcomes.
type ActivityRecorder interface {
	Record(ctx context.Context, typ activity.ActivityType, sessionID, summary string)
}

type noopRecorder struct{}

func (noopRecorder) Record(context.Context, activity.ActivityType, string, string) {}
