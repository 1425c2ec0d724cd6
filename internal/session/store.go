// internal/session/store.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liduanken/bakery-quotation-agent/internal/common/logger"
	"github.com/liduanken/bakery-quotation-agent/internal/common/metrics"
	"github.com/liduanken/bakery-quotation-agent/internal/pipeline"
)

// Session binds one conversation state to an identifier. LastActive drives
// idle eviction.
type Session struct {
	ID         string
	State      *pipeline.ConversationState
	CreatedAt  time.Time
	LastActive time.Time
}

// Store manages conversation sessions. Get refreshes the idle clock.
type Store interface {
	Create() *Session
	Get(id string) (*Session, bool)
	Evict(id string) bool
	Len() int
}

// MemoryStore is an in-memory session store with idle-timeout sweeping.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	idleTimeout time.Duration
	logger      logger.Logger
	now         func() time.Time
}

// NewMemoryStore creates a store that considers sessions idle after
// idleTimeout without activity.
func NewMemoryStore(idleTimeout time.Duration, log logger.Logger) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*Session),
		idleTimeout: idleTimeout,
		logger:      log,
		now:         time.Now,
	}
}

// Create starts a new session with a fresh conversation state.
func (s *MemoryStore) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{
		ID:         uuid.NewString(),
		State:      pipeline.NewConversationState(),
		CreatedAt:  now,
		LastActive: now,
	}
	s.sessions[sess.ID] = sess
	metrics.SessionsActive.Set(float64(len(s.sessions)))

	s.logger.Info("session created", map[string]interface{}{"session_id": sess.ID})
	return sess
}

// Get returns the session and marks it active.
func (s *MemoryStore) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.LastActive = s.now()
	return sess, true
}

// Evict removes a session, reporting whether it existed.
func (s *MemoryStore) Evict(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	metrics.SessionsActive.Set(float64(len(s.sessions)))

	s.logger.Info("session evicted", map[string]interface{}{"session_id": id})
	return true
}

// Len returns the number of live sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// SweepIdle evicts every session idle longer than the store's timeout and
// returns how many were removed.
func (s *MemoryStore) SweepIdle() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTimeout)
	var evicted int
	for id, sess := range s.sessions {
		if sess.LastActive.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		metrics.SessionsActive.Set(float64(len(s.sessions)))
		s.logger.Info("idle sessions swept", map[string]interface{}{"evicted": evicted})
	}
	return evicted
}

// RunSweeper sweeps on the given interval until the context is cancelled.
func (s *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepIdle()
		}
	}
}
