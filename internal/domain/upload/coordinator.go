package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ganot/neosearch/internal/domain/activity"
	"github.com/ganot/neosearch/internal/domain/message"
	"github.com/ganot/neosearch/internal/domain/session"
	"github.com/ganot/neosearch/internal/gateway"
)

// Coordinator drives upload batches for the active session.
type Coordinator struct {
	gateway      Gateway
	sessions     Sessions
	conversation Conversation
	journal      ActivityRecorder
	logger       *slog.Logger

	mu   sync.Mutex
	busy map[string]bool
}

// NewCoordinator creates an upload coordinator.
func NewCoordinator(gw Gateway, sessions Sessions, conversation Conversation, journal ActivityRecorder, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if journal == nil {
		journal = noopRecorder{}
	}
	return &Coordinator{
		gateway:      gw,
		sessions:     sessions,
		conversation: conversation,
		journal:      journal,
		logger:       logger,
		busy:         make(map[string]bool),
	}
}

// Upload sends files one at a time to the active session. It is a no-op
// returning (nil, nil) without an active session or files. Per-file failures
// are reported in the result and in the conversation; the batch continues.
func (c *Coordinator) Upload(ctx context.Context, files []File) (*Result, error) {
	if len(files) == 0 {
		return nil, nil
	}
	active, err := c.sessions.Active()
	if err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			return nil, nil
		}
		return nil, err
	}
	sessionID := active.ID

	if !c.acquire(sessionID) {
		return nil, ErrUploadBusy
	}
	defer c.releaseBusy(sessionID)

	unlock := c.sessions.LockSession(sessionID)
	defer unlock()

	existing, err := c.sessions.Documents(sessionID)
	if err != nil {
		return nil, err
	}
	firstBatch := len(existing) == 0

	result := &Result{SessionID: sessionID}
	for _, file := range files {
		doc, err := c.uploadOne(ctx, sessionID, file)
		if err == nil {
			_, err = c.sessions.AddDocument(sessionID, doc)
		}
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrUploadFailed, file.Name(), err)
			result.Failed = append(result.Failed, FileError{Name: file.Name(), Err: err})
			c.logger.Warn("document upload failed", "session_id", sessionID, "file", file.Name(), "error", err)
			c.journal.Record(ctx, activity.TypeUploadFailed, sessionID, file.Name())
			c.conversation.Append(sessionID, message.SenderAssistant, fmt.Sprintf("Failed to upload %s.", file.Name()), nil)
			continue
		}

		result.Uploaded = append(result.Uploaded, doc)
		c.logger.Info("document uploaded", "session_id", sessionID, "file", doc.Name, "doc_id", doc.UUID)
		c.journal.Record(ctx, activity.TypeDocumentUploaded, sessionID, doc.Name)
		c.conversation.Append(sessionID, message.SenderAssistant, fmt.Sprintf("Uploaded %s.", doc.Name), nil)

		if firstBatch && result.RenamedTo == "" {
			result.RenamedTo = doc.Name
			c.sessions.RenameInBackground(ctx, sessionID, doc.Name)
		}
	}

	return result, nil
}

func (c *Coordinator) uploadOne(ctx context.Context, sessionID string, file File) (session.Document, error) {
	content, err := file.Open()
	if err != nil {
		return session.Document{}, err
	}
	defer content.Close()

	uploaded, err := c.gateway.UploadDocument(ctx, sessionID, file.Name(), content)
	if err != nil {
		return session.Document{}, err
	}
	if uploaded == nil || uploaded.DocID == "" {
		return session.Document{}, gateway.ErrBadResponse
	}
	return session.Document{UUID: uploaded.DocID, Name: file.Name()}, nil
}

// Busy reports whether a batch is running for the session.
func (c *Coordinator) Busy(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[sessionID]
}

func (c *Coordinator) acquire(sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[sessionID] {
		return false
	}
	c.busy[sessionID] = true
	return true
}

func (c *Coordinator) releaseBusy(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, sessionID)
}
