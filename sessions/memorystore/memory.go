// Package memorystore provides the in-memory session store used by tests
// and single-process tools. Nothing survives a restart.
package memorystore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lumenbridge/intent-bridge-go/sessions"
)

// Store implements sessions.Store with a mutex-guarded map.
type Store struct {
	mu   sync.RWMutex
	byPk map[string]*sessions.Session

	now func() time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{byPk: make(map[string]*sessions.Session), now: time.Now}
}

// Get returns the session for pubkey when present, unexpired, and covering
// intent.
func (s *Store) Get(ctx context.Context, intent, pubkey string) (*sessions.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.byPk[pubkey]
	if !ok || sess.Expired(s.now()) || !sess.GrantsIntent(intent) {
		return nil, nil
	}
	return sess.Clone(), nil
}

// Add stores sess, replacing any session already held for its pubkey.
func (s *Store) Add(ctx context.Context, sess *sessions.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPk[sess.Pubkey] = sess.Clone()
	return nil
}

// List returns stored sessions ordered by pubkey.
func (s *Store) List(ctx context.Context) ([]*sessions.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*sessions.Session, 0, len(s.byPk))
	for _, sess := range s.byPk {
		out = append(out, sess.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pubkey < out[j].Pubkey })
	return out, nil
}

// Forget drops the session for pubkey; unknown keys are a no-op.
func (s *Store) Forget(ctx context.Context, pubkey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byPk, pubkey)
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *Store) Close() error { return nil }

// SetNow overrides the clock. Test hook.
func (s *Store) SetNow(now func() time.Time) { s.now = now }

var _ sessions.Store = (*Store)(nil)
