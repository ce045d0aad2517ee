// internal/store/memory.go
//
// In-memory session store: the SessionID -> game.Session map owned by the
// transport layer.
//
// Characteristics:
//   - Sessions are kept by value, keyed by session ID.
//   - Concurrency-safe. Update holds a per-session lock while fn runs, so two
//     requests carrying the same cookie cannot interleave while requests for
//     other sessions proceed. The map mutex is never held across fn.
//   - Sessions idle longer than the TTL expire (lazily on access, and by Sweep).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/countryguess/internal/game"
)

// ErrNotFound is returned by Get for unknown or expired sessions.
var ErrNotFound = errors.New("session not found")

// Store defines the persistence interface for game sessions.
type Store interface {
	// Get returns a copy of the session stored under id.
	Get(ctx context.Context, id string) (game.Session, error)

	// Update loads the session under id (a zero Session if absent), passes it
	// to fn, and stores the result unless fn returns an error.
	Update(ctx context.Context, id string, fn func(s *game.Session) error) error

	// Delete removes the session under id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}

type entry struct {
	session game.Session
	touched time.Time
}

// idLock serializes Update calls for one session ID. refs counts holders
// and waiters so the lock can be dropped once nobody needs it.
type idLock struct {
	mu   sync.Mutex
	refs int
}

// Memory is an in-memory map-based Store implementation.
type Memory struct {
	mu       sync.Mutex         // guards sessions and locks
	sessions map[string]*entry  // keyed by session ID
	locks    map[string]*idLock // per-ID Update locks in use
	ttl      time.Duration     // 0 disables expiry
	now      func() time.Time
}

// NewMemoryStore constructs a new in-memory Store whose sessions expire after
// ttl without activity.
func NewMemoryStore(ttl time.Duration) *Memory {
	return &Memory{
		sessions: make(map[string]*entry),
		locks:    make(map[string]*idLock),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *Memory) expired(e *entry, now time.Time) bool {
	return m.ttl > 0 && now.Sub(e.touched) > m.ttl
}

// Get looks up a session by ID.
func (m *Memory) Get(ctx context.Context, id string) (game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return game.Session{}, ErrNotFound
	}
	if m.expired(e, m.now()) {
		delete(m.sessions, id)
		return game.Session{}, ErrNotFound
	}
	return e.session, nil
}

// Update applies fn to the session under id while holding that session's lock.
func (m *Memory) Update(ctx context.Context, id string, fn func(s *game.Session) error) error {
	unlock := m.lockID(id)
	defer unlock()

	m.mu.Lock()
	var s game.Session
	if e, ok := m.sessions[id]; ok && !m.expired(e, m.now()) {
		s = e.session
	}
	m.mu.Unlock()

	if err := fn(&s); err != nil {
		return err
	}

	m.mu.Lock()
	m.sessions[id] = &entry{session: s, touched: m.now()}
	m.mu.Unlock()
	return nil
}

// lockID acquires the Update lock for id and returns its release func.
func (m *Memory) lockID(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &idLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}

// Delete removes a session.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are held, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, e := range m.sessions {
		if m.expired(e, now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Memory) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				log.Debug().Int("expired", n).Msg("swept sessions")
			}
		}
	}
}
