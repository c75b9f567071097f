package storage

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/captionkit/captioner/internal/workflow"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore keeps one workflow controller per session. Sessions that are
// not touched for the TTL are evicted; nothing survives a restart.
type SessionStore struct {
	sessions *cache.Cache
	factory  func() *workflow.Controller
}

// New returns a store whose sessions expire after ttl of inactivity.
func New(ttl time.Duration, factory func() *workflow.Controller) *SessionStore {
	s := &SessionStore{
		sessions: cache.New(ttl, ttl/2),
		factory:  factory,
	}
	s.sessions.OnEvicted(func(id string, _ interface{}) {
		slog.Info("Session expired", "session_id", id)
	})
	return s
}

// Create starts a new session and returns its ID.
func (s *SessionStore) Create() (string, *workflow.Controller) {
	id := uuid.NewString()
	c := s.factory()
	s.sessions.SetDefault(id, c)
	slog.Info("Session created", "session_id", id)
	return id, c
}

// Get returns the session's controller and refreshes its expiry.
func (s *SessionStore) Get(sessionID string) (*workflow.Controller, error) {
	v, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	c := v.(*workflow.Controller)
	s.sessions.SetDefault(sessionID, c)
	return c, nil
}

// IDs returns the IDs of all live sessions.
func (s *SessionStore) IDs() []string {
	items := s.sessions.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	return ids
}

func (s *SessionStore) Delete(sessionID string) {
	s.sessions.Delete(sessionID)
}

func (s *SessionStore) Count() int {
	return s.sessions.ItemCount()
}
