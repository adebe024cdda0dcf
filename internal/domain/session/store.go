package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/ganot/neosearch/internal/domain/activity"
	"github.com/ganot/neosearch/internal/gateway"
	"golang.org/x/sync/singleflight"
)

// Store keeps the local session collection in step with the remote store.
//
// The collection, the active pointer and the view intent counters are guarded
// by mu, which is never held across a gateway call. intent numbers every
// create/select as it is issued; committed is the number of the newest one
// that actually became the view. A result is stale only when a newer intent
// has committed. Mutations of one session are serialized by a per-session
// lock held for the whole round trip.
type Store struct {
	gateway      Gateway
	conversation Conversation
	journal      ActivityRecorder
	logger       *slog.Logger

	mu        sync.Mutex
	sessions  []Session
	activeID  string
	intent    uint64
	committed uint64

	locks      *sessionLocks
	hydration  singleflight.Group
	background sync.WaitGroup
}

// NewStore creates a session store.
func NewStore(gw Gateway, conversation Conversation, journal ActivityRecorder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if journal == nil {
		journal = noopRecorder{}
	}
	if conversation == nil {
		conversation = noopConversation{}
	}
	return &Store{
		gateway:      gw,
		conversation: conversation,
		journal:      journal,
		logger:       logger,
		locks:        newSessionLocks(),
	}
}

// Hydrate replaces the collection with the remote listing and selects the
// most recent session. Concurrent calls share one remote round trip.
func (s *Store) Hydrate(ctx context.Context) error {
	_, err, _ := s.hydration.Do("hydrate", func() (any, error) {
		return nil, s.hydrate(ctx)
	})
	return err
}

func (s *Store) hydrate(ctx context.Context) error {
	intent := s.beginIntent()

	remote, err := s.gateway.ListSessions(ctx)
	if err != nil {
		s.logger.Error("session list fetch failed", "error", err)
		s.journal.Record(ctx, activity.TypeOperationFailed, "", "hydrate failed: "+err.Error())
		return fmt.Errorf("%w: %w", ErrHydrateFailed, err)
	}

	s.mu.Lock()
	previous := s.sessions
	next := make([]Session, 0, len(remote))
	for _, rs := range remote {
		if rs.ID == "" || slices.ContainsFunc(next, func(x Session) bool { return x.ID == rs.ID }) {
			continue
		}
		next = append(next, fromRemote(rs))
	}

	superseded := s.committed > intent
	if s.activeID != "" {
		idx := indexOf(next, s.activeID)
		prev := indexOf(previous, s.activeID)
		switch {
		case idx >= 0 && next[idx].Documents == nil && prev >= 0:
			next[idx].Documents = slices.Clone(previous[prev].Documents)
		case idx < 0 && superseded && prev >= 0:
			// The listing predates the newer view; keep it visible.
			next = append(next, previous[prev].clone())
		case idx < 0:
			s.activeID = ""
			s.conversation.Reset("")
		}
	}
	for i := range next {
		if next[i].Documents == nil {
			next[i].Documents = []Document{}
		}
	}
	s.sessions = next
	var latest string
	if len(next) > 0 {
		latest = next[len(next)-1].ID
	}
	s.mu.Unlock()

	s.logger.Info("sessions hydrated", "count", len(next), "superseded", superseded)
	s.journal.Record(ctx, activity.TypeSessionsHydrated, "", fmt.Sprintf("%d sessions", len(next)))

	if superseded || latest == "" {
		return nil
	}
	return s.selectAs(ctx, latest, intent)
}

// Create asks the remote store for a new session, appends it and makes it active.
func (s *Store) Create(ctx context.Context) (Session, error) {
	intent := s.beginIntent()

	created, err := s.gateway.CreateSession(ctx)
	if err != nil {
		s.logger.Error("session create failed", "error", err)
		s.journal.Record(ctx, activity.TypeOperationFailed, "", "create failed: "+err.Error())
		return Session{}, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}
	if created == nil || created.ID == "" {
		return Session{}, fmt.Errorf("%w: %w", ErrCreateFailed, gateway.ErrBadResponse)
	}

	title := created.Title
	if title == "" {
		title = DefaultTitle
	}

	s.mu.Lock()
	if indexOf(s.sessions, created.ID) < 0 {
		s.sessions = append(s.sessions, Session{ID: created.ID, Title: title, Documents: []Document{}})
	}
	activated := s.committed < intent
	if activated {
		s.committed = intent
		s.activeID = created.ID
		s.conversation.Reset(created.ID)
	}
	out := s.snapshotLocked(created.ID)
	s.mu.Unlock()

	s.logger.Info("session created", "session_id", created.ID, "activated", activated)
	s.journal.Record(ctx, activity.TypeSessionCreated, created.ID, title)
	if !activated {
		s.journal.Record(ctx, activity.TypeSelectionSuperseded, created.ID, "create resolved after a newer selection")
	}
	return out, nil
}

// Select fetches the session's confirmed documents and makes it active,
// clearing the conversation. A result that resolves after a newer view has
// committed is discarded with ErrSuperseded.
func (s *Store) Select(ctx context.Context, sessionID string) error {
	if !s.exists(sessionID) {
		return ErrSessionNotFound
	}
	return s.selectAs(ctx, sessionID, s.beginIntent())
}

func (s *Store) selectAs(ctx context.Context, sessionID string, intent uint64) error {
	release := s.locks.lock(sessionID)
	defer release()

	if !s.exists(sessionID) {
		return ErrSessionNotFound
	}

	selected, err := s.gateway.SelectSession(ctx, sessionID)
	if err != nil {
		s.logger.Error("session select failed", "session_id", sessionID, "error", err)
		s.journal.Record(ctx, activity.TypeOperationFailed, sessionID, "select failed: "+err.Error())
		return fmt.Errorf("%w: %w", ErrSelectFailed, err)
	}

	s.mu.Lock()
	if s.committed > intent {
		s.mu.Unlock()
		s.logger.Info("stale selection discarded", "session_id", sessionID)
		s.journal.Record(ctx, activity.TypeSelectionSuperseded, sessionID, "select resolved after a newer selection")
		return ErrSuperseded
	}
	idx := indexOf(s.sessions, sessionID)
	if idx < 0 {
		s.mu.Unlock()
		return ErrSessionNotFound
	}
	s.sessions[idx].Documents = confirmedDocuments(selected)
	s.committed = intent
	s.activeID = sessionID
	s.conversation.Reset(sessionID)
	count := len(s.sessions[idx].Documents)
	s.mu.Unlock()

	s.logger.Info("session selected", "session_id", sessionID, "documents", count)
	s.journal.Record(ctx, activity.TypeSessionSelected, sessionID, fmt.Sprintf("%d documents", count))
	return nil
}

// refreshDocuments replaces a session's documents with the remote set without
// touching the active pointer or the conversation.
func (s *Store) refreshDocuments(ctx context.Context, sessionID string) error {
	release := s.locks.lock(sessionID)
	defer release()

	selected, err := s.gateway.SelectSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSelectFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := indexOf(s.sessions, sessionID); idx >= 0 {
		s.sessions[idx].Documents = confirmedDocuments(selected)
	}
	return nil
}

// Delete removes the session remotely and then locally. When the active
// session goes away the first remaining session becomes active.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	release := s.locks.lock(sessionID)

	if !s.exists(sessionID) {
		release()
		return ErrSessionNotFound
	}

	if err := s.gateway.DeleteSession(ctx, sessionID); err != nil {
		release()
		s.logger.Error("session delete failed", "session_id", sessionID, "error", err)
		s.journal.Record(ctx, activity.TypeOperationFailed, sessionID, "delete failed: "+err.Error())
		return fmt.Errorf("%w: %w", ErrDeleteFailed, err)
	}

	s.mu.Lock()
	if idx := indexOf(s.sessions, sessionID); idx >= 0 {
		s.sessions = slices.Delete(s.sessions, idx, idx+1)
	}
	var successor string
	if s.activeID == sessionID {
		if len(s.sessions) > 0 {
			successor = s.sessions[0].ID
		}
		s.activeID = successor
		s.conversation.Reset(successor)
	}
	s.mu.Unlock()
	release()

	s.logger.Info("session deleted", "session_id", sessionID, "successor", successor)
	s.journal.Record(ctx, activity.TypeSessionDeleted, sessionID, "")

	if successor != "" {
		if err := s.refreshDocuments(ctx, successor); err != nil {
			s.logger.Warn("successor refresh failed", "session_id", successor, "error", err)
		}
	}
	return nil
}

// Rename changes a session title remotely, then locally, and reports whether
// the change was applied. Failures are logged and journaled but never
// returned; the local title stays unchanged.
func (s *Store) Rename(ctx context.Context, sessionID, title string) bool {
	title = strings.TrimSpace(title)
	if title == "" || !s.exists(sessionID) {
		return false
	}

	if err := s.gateway.RenameSession(ctx, sessionID, title); err != nil {
		err = fmt.Errorf("%w: %w", ErrRenameFailed, err)
		s.logger.Warn("session rename failed", "session_id", sessionID, "error", err)
		s.journal.Record(ctx, activity.TypeOperationFailed, sessionID, err.Error())
		return false
	}

	s.mu.Lock()
	if idx := indexOf(s.sessions, sessionID); idx >= 0 {
		s.sessions[idx].Title = title
	}
	s.mu.Unlock()

	s.logger.Info("session renamed", "session_id", sessionID, "title", title)
	s.journal.Record(ctx, activity.TypeSessionRenamed, sessionID, title)
	return true
}

// RenameInBackground runs Rename without blocking the caller. Wait drains it.
func (s *Store) RenameInBackground(ctx context.Context, sessionID, title string) {
	ctx = context.WithoutCancel(ctx)
	s.background.Go(func() {
		s.Rename(ctx, sessionID, title)
	})
}

// Wait blocks until background renames finish.
func (s *Store) Wait() {
	s.background.Wait()
}

// LockSession serializes a multi-step mutation of one session with every
// other mutation of that session. Callers must not hold two session locks.
func (s *Store) LockSession(sessionID string) (release func()) {
	return s.locks.lock(sessionID)
}

// Sessions returns a snapshot of the collection in order.
func (s *Store) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		c := sess.clone()
		c.IsActive = sess.ID == s.activeID
		out = append(out, c)
	}
	return out
}

// Get returns a snapshot of one session.
func (s *Store) Get(sessionID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOf(s.sessions, sessionID) < 0 {
		return Session{}, ErrSessionNotFound
	}
	return s.snapshotLocked(sessionID), nil
}

// Active returns a snapshot of the active session.
func (s *Store) Active() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeID == "" {
		return Session{}, ErrNoActiveSession
	}
	return s.snapshotLocked(s.activeID), nil
}

// ActiveID returns the active session id, or "" when none is active.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

func (s *Store) beginIntent() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intent++
	return s.intent
}

func (s *Store) exists(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.sessions, sessionID) >= 0
}

func (s *Store) snapshotLocked(sessionID string) Session {
	idx := indexOf(s.sessions, sessionID)
	if idx < 0 {
		return Session{}
	}
	out := s.sessions[idx].clone()
	out.IsActive = sessionID == s.activeID
	return out
}

func indexOf(sessions []Session, id string) int {
	return slices.IndexFunc(sessions, func(s Session) bool { return s.ID == id })
}

func confirmedDocuments(selected *gateway.SelectedSession) []Document {
	if selected == nil {
		return []Document{}
	}
	docs := fromRemoteDocuments(selected.Documents)
	if docs == nil {
		docs = []Document{}
	}
	return docs
}
