package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/ganot/neosearch/internal/domain/activity"
	"github.com/ganot/neosearch/internal/domain/message"
	"github.com/ganot/neosearch/internal/gateway"
)

const (
	// DefaultTopK is the number of evidence chunks requested per query.
	DefaultTopK = 30
	// DegradedNotice replaces the answer when the remote search fails.
	DegradedNotice = "Search temporarily unavailable"
	// EmptyAnswer is shown when the remote store returns no answer text.
	EmptyAnswer = "No answer was generated for this question."
)

// Orchestrator submits queries for the active session and records the
// exchange in the conversation.
type Orchestrator struct {
	gateway      Gateway
	sessions     Sessions
	conversation Conversation
	journal      ActivityRecorder
	logger       *slog.Logger
	topK         int

	mu        sync.Mutex
	searching map[string]int
}

// NewOrchestrator creates a search orchestrator. A non-positive topK uses DefaultTopK.
func NewOrchestrator(gw Gateway, sessions Sessions, conversation Conversation, journal ActivityRecorder, logger *slog.Logger, topK int) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if journal == nil {
		journal = noopRecorder{}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Orchestrator{
		gateway:      gw,
		sessions:     sessions,
		conversation: conversation,
		journal:      journal,
		logger:       logger,
		topK:         topK,
		searching:    make(map[string]int),
	}
}

// Query asks the active session's documents a question.
//
// It returns (nil, nil) without making a remote call when the text is blank,
// no session is active, or the active session has no documents. It also
// returns (nil, nil) when the answer arrives after the user switched away.
// On a remote failure the degraded notice is appended and an error wrapping
// ErrSearchFailed is returned.
func (o *Orchestrator) Query(ctx context.Context, text string) (*message.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	active, err := o.sessions.Active()
	if err != nil || !active.HasDocuments() {
		return nil, nil
	}
	sessionID := active.ID

	o.begin(sessionID)
	defer o.end(sessionID)

	o.conversation.Append(sessionID, message.SenderUser, text, nil)

	resp, err := o.gateway.Search(ctx, gateway.SearchRequest{
		Query:     text,
		TopK:      o.topK,
		SessionID: sessionID,
	})
	if err != nil {
		o.logger.Error("search failed", "session_id", sessionID, "error", err)
		o.journal.Record(ctx, activity.TypeSearchFailed, sessionID, err.Error())
		o.conversation.Append(sessionID, message.SenderAssistant, DegradedNotice, nil)
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}

	answer := strings.TrimSpace(resp.Answer)
	if answer == "" {
		answer = EmptyAnswer
	}
	evidence := make([]message.Chunk, 0, len(resp.Results))
	for _, hit := range resp.Results {
		evidence = append(evidence, message.Chunk{
			Text:               hit.Text,
			SourceDocumentName: hit.SourceName,
			PageNumber:         hit.PageNumber,
			Score:              hit.Score,
		})
	}

	o.journal.Record(ctx, activity.TypeSearched, sessionID, fmt.Sprintf("%d evidence chunks", len(evidence)))

	msg, ok := o.conversation.Append(sessionID, message.SenderAssistant, answer, evidence)
	if !ok {
		o.logger.Info("search answer discarded after session switch", "session_id", sessionID)
		return nil, nil
	}
	o.logger.Info("search answered", "session_id", sessionID, "evidence", len(evidence))
	return &msg, nil
}

// Searching reports whether a query is in flight for the session.
func (o *Orchestrator) Searching(sessionID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.searching[sessionID] > 0
}

// Evidence returns the chunks attached to an answer.
func (o *Orchestrator) Evidence(messageID string) ([]message.Chunk, error) {
	return o.conversation.Evidence(messageID)
}

func (o *Orchestrator) begin(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.searching[sessionID]++
}

func (o *Orchestrator) end(sessionID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.searching[sessionID]--
	if o.searching[sessionID] <= 0 {
		delete(o.searching, sessionID)
	}
}
