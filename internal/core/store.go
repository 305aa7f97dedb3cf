package core

// store.go keeps live sessions in memory and evicts idle ones.
//
// Nothing is persisted: a reaped or restarted store loses its sessions.
// The reaper is long-running and context-aware for graceful shutdown.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultIdleTimeout is how long an untouched session survives.
const DefaultIdleTimeout = time.Hour

// Store maps session IDs to sessions.
type Store struct {
	opts        Options
	idleTimeout time.Duration

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns an empty store. Sessions it creates use opts.
func NewStore(opts Options, idleTimeout time.Duration) *Store {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Store{
		opts:        opts.withDefaults(),
		idleTimeout: idleTimeout,
		sessions:    make(map[string]*Session),
	}
}

// Create starts a new session.
func (st *Store) Create() *Session {
	s := NewSession(st.opts)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	slog.Debug("session created", "session_id", s.ID)
	return s
}

// Get returns the session with the given ID and marks it used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.touch(time.Now())
	return s, nil
}

// GetOrCreate returns the session for id, creating a fresh one if id is
// unknown. The second result reports whether a session was created.
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, err := st.Get(id); err == nil {
			return s, false
		}
	}
	return st.Create(), true
}

// Delete discards a session. Unknown IDs are ignored.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Reap removes sessions idle since before now minus the idle timeout and
// returns how many were removed. Sessions with a batch in flight are kept.
func (st *Store) Reap(now time.Time) int {
	cutoff := now.Add(-st.idleTimeout)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.busy() || s.idleSince().After(cutoff) {
			continue
		}
		delete(st.sessions, id)
		removed++
	}
	return removed
}

// StartReaper evicts idle sessions every interval until ctx is cancelled.
// It blocks; run it in its own goroutine.
func (st *Store) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = st.idleTimeout / 4
	}

	slog.Info("session reaper started",
		"interval", interval.String(),
		"idle_timeout", st.idleTimeout.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session reaper stopped")
			return
		case now := <-ticker.C:
			if n := st.Reap(now); n > 0 {
				slog.Info("reaped idle sessions", "sessions_removed", n, "sessions_live", st.Len())
			}
		}
	}
}
