// Package storage provides session persistence implementations.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/domain"
	"github.com/satwikgarg2022461/BTP-Voice-Assistant/internal/logger"
)

// Compile-time interface check.
var _ domain.SessionStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory session store. Sessions are kept
// serialized, so every Load hands back a private copy — the same
// semantics as the Redis store, which keeps the engine and the timer
// supervisor from stepping on each other's state. Safe for concurrent
// access.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	log      *logger.Logger
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
		log:      log,
	}
}

// Save persists a session. Overwrites if it already exists.
func (s *MemoryStore) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("storage: encode session %s: %w", session.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving session %s (recipe=%s, state=%s)", session.ID, session.RecipeID, session.State)
	s.sessions[session.ID] = data
	return nil
}

// Load retrieves a session by ID.
func (s *MemoryStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	data, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		s.log.Debug("session not found: %s", id)
		return nil, domain.ErrNotFound
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("storage: decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Delete removes a session by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	s.log.Debug("deleted session %s", id)
	return nil
}

// ListActive returns all sessions that need background supervision.
func (s *MemoryStore) ListActive(ctx context.Context) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Session
	for id, data := range s.sessions {
		var sess domain.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return nil, fmt.Errorf("storage: decode session %s: %w", id, err)
		}
		if sessionActive(&sess) {
			out = append(out, &sess)
		}
	}
	s.log.Debug("listing active sessions, count=%d", len(out))
	return out, nil
}

// sessionActive reports whether background supervision should see the
// session: a recipe in flight, or a timer armed or ringing. Timers can
// exist without a recipe, so the timer check comes first.
func sessionActive(sess *domain.Session) bool {
	if sess.Timer != nil {
		return true
	}
	return sess.State != domain.StateIdle && sess.State != domain.StateCompleted
}
