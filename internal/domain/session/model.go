package session

import (
	"slices"

	"github.com/ganot/neosearch/internal/gateway"
)

// DefaultTitle is shown for sessions the remote store created without a title.
const DefaultTitle = "New ChatWindow"

// Document is an uploaded file owned by exactly one session.
type Document struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

// Session is the local mirror of a remote session.
type Session struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Documents []Document `json:"documents"`
	IsActive  bool       `json:"is_active"`
}

// HasDocuments reports whether the session can be queried.
func (s Session) HasDocuments() bool {
	return len(s.Documents) > 0
}

func (s Session) clone() Session {
	s.Documents = slices.Clone(s.Documents)
	if s.Documents == nil {
		s.Documents = []Document{}
	}
	return s
}

func fromRemote(rs gateway.RemoteSession) Session {
	title := rs.Title
	if title == "" {
		title = DefaultTitle
	}
	return Session{
		ID:        rs.ID,
		Title:     title,
		Documents: fromRemoteDocuments(rs.Documents),
	}
}

func fromRemoteDocuments(docs []gateway.RemoteDocument) []Document {
	if docs == nil {
		return nil
	}
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, Document{UUID: doc.UUID, Name: doc.Name})
	}
	return out
}
