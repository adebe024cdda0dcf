package message

import "time"

// Sender identifies who produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Chunk is a retrieved document fragment attached to an answer as evidence.
type Chunk struct {
	Text               string  `json:"text"`
	SourceDocumentName string  `json:"source_document_name"`
	PageNumber         int     `json:"page_number"`
	Score              float64 `json:"score"`
}

// Message is one entry of the active session's conversation.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Evidence  []Chunk   `json:"evidence,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasEvidence reports whether the message carries evidence chunks.
func (m Message) HasEvidence() bool {
	return len(m.Evidence) > 0
}
