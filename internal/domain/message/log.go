package message

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Log is the transient conversation of the active session. It is owned by
// exactly one session id at a time (or none) and is wiped on every Reset.
// Appends name the session they belong to and are dropped when that session
// no longer owns the log.
type Log struct {
	mu       sync.RWMutex
	owner    string
	messages []Message
}

// NewLog creates an empty log with no owner.
func NewLog() *Log {
	return &Log{}
}

// Reset discards every message and hands the log to owner ("" for none).
func (l *Log) Reset(owner string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.owner = owner
	l.messages = nil
}

// Owner returns the session id currently owning the log.
func (l *Log) Owner() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.owner
}

// Append adds a message on behalf of sessionID. It returns false and drops the
// message when sessionID does not own the log.
func (l *Log) Append(sessionID string, sender Sender, text string, evidence []Chunk) (Message, bool) {
	msg := Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Evidence:  slices.Clone(evidence),
		CreatedAt: time.Now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if sessionID == "" || sessionID != l.owner {
		return Message{}, false
	}
	l.messages = append(l.messages, msg)
	return msg, true
}

// Messages returns a copy of the log in append order.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Message, len(l.messages))
	for i, msg := range l.messages {
		msg.Evidence = slices.Clone(msg.Evidence)
		out[i] = msg
	}
	return out
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

// Evidence returns a copy of the evidence attached to a message.
func (l *Log) Evidence(messageID string) ([]Chunk, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, msg := range l.messages {
		if msg.ID == messageID {
			return slices.Clone(msg.Evidence), nil
		}
	}
	return nil, ErrMessageNotFound
}
