package session

import (
	"context"
	"fmt"
	"slices"

	"github.com/ganot/neosearch/internal/domain/activity"
)

// Documents returns the confirmed documents of a session.
func (s *Store) Documents(sessionID string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.sessions, sessionID)
	if idx < 0 {
		return nil, ErrSessionNotFound
	}
	return slices.Clone(s.sessions[idx].Documents), nil
}

// AddDocument records a document the remote store has confirmed. It reports
// whether the session had no documents before.
func (s *Store) AddDocument(sessionID string, doc Document) (wasEmpty bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := indexOf(s.sessions, sessionID)
	if idx < 0 {
		return false, ErrSessionNotFound
	}
	docs := s.sessions[idx].Documents
	wasEmpty = len(docs) == 0
	if !slices.ContainsFunc(docs, func(d Document) bool { return d.UUID == doc.UUID }) {
		s.sessions[idx].Documents = append(docs, doc)
	}
	return wasEmpty, nil
}

// DeleteDocument removes a document remotely, then from the session.
func (s *Store) DeleteDocument(ctx context.Context, sessionID, docID string) error {
	release := s.locks.lock(sessionID)
	defer release()

	docs, err := s.Documents(sessionID)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(docs, func(d Document) bool { return d.UUID == docID }) {
		return ErrDocumentNotFound
	}

	if err := s.gateway.DeleteDocument(ctx, sessionID, docID); err != nil {
		s.logger.Error("document delete failed", "session_id", sessionID, "doc_id", docID, "error", err)
		s.journal.Record(ctx, activity.TypeOperationFailed, sessionID, "document delete failed: "+err.Error())
		return fmt.Errorf("%w: %w", ErrDocumentDeleteFailed, err)
	}

	s.mu.Lock()
	if idx := indexOf(s.sessions, sessionID); idx >= 0 {
		s.sessions[idx].Documents = slices.DeleteFunc(s.sessions[idx].Documents, func(d Document) bool {
			return d.UUID == docID
		})
	}
	s.mu.Unlock()

	s.logger.Info("document deleted", "session_id", sessionID, "doc_id", docID)
	s.journal.Record(ctx, activity.TypeDocumentDeleted, sessionID, docID)
	return nil
}
