package service

import (
	"context"
	"sync"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/pkg/apperror"
	"github.com/google/uuid"
)

// sessionStore holds per-terminal workflow state (carts, return selections)
// in memory. Each entry carries its own lock so one session is only ever
// mutated by one request at a time.
type sessionStore[T any] struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*session[T]
	ttl     time.Duration
	now     func() time.Time
}

type session[T any] struct {
	mu         sync.Mutex
	id         uuid.UUID
	terminalID uuid.UUID
	busy       bool
	lastSeen   time.Time
	state      T
}

func newSessionStore[T any](ttl time.Duration) *sessionStore[T] {
	return &sessionStore[T]{
		entries: make(map[uuid.UUID]*session[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *sessionStore[T]) put(terminalID uuid.UUID, state T) *session[T] {
	sess := &session[T]{
		id:         uuid.New(),
		terminalID: terminalID,
		lastSeen:   s.now(),
		state:      state,
	}
	s.mu.Lock()
	s.entries[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// acquire returns the locked session. Callers must call release.
func (s *sessionStore[T]) acquire(id, terminalID uuid.UUID) (*session[T], error) {
	s.mu.Lock()
	sess, ok := s.entries[id]
	s.mu.Unlock()

	if !ok || sess.terminalID != terminalID {
		return nil, apperror.NewNotFoundError("Session")
	}

	sess.mu.Lock()
	if s.expired(sess) || !s.holds(sess) {
		sess.mu.Unlock()
		s.removeIf(sess)
		return nil, apperror.NewNotFoundError("Session")
	}
	sess.lastSeen = s.now()
	return sess, nil
}

// inspect runs fn on a live session without refreshing its idle timer
func (s *sessionStore[T]) inspect(id, terminalID uuid.UUID, fn func(T) bool) bool {
	s.mu.Lock()
	sess, ok := s.entries[id]
	s.mu.Unlock()
	if !ok || sess.terminalID != terminalID {
		return false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if s.expired(sess) {
		return false
	}
	return fn(sess.state)
}

func (s *sessionStore[T]) holds(sess *session[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[sess.id] == sess
}

func (s *sessionStore[T]) removeIf(sess *session[T]) {
	s.mu.Lock()
	if s.entries[sess.id] == sess {
		delete(s.entries, sess.id)
	}
	s.mu.Unlock()
}

func (s *sessionStore[T]) release(sess *session[T]) {
	sess.mu.Unlock()
}

func (s *sessionStore[T]) remove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

func (s *sessionStore[T]) expired(sess *session[T]) bool {
	return s.ttl > 0 && !sess.busy && s.now().Sub(sess.lastSeen) > s.ttl
}

// cleanupLoop periodically drops idle sessions until ctx is done
func (s *sessionStore[T]) cleanupLoop(ctx context.Context, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *sessionStore[T]) cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.entries {
		if sess.mu.TryLock() {
			if s.expired(sess) {
				delete(s.entries, id)
				removed++
			}
			sess.mu.Unlock()
		}
	}
	return removed
}

func (s *sessionStore[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
