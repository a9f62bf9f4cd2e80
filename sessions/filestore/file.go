// Package filestore persists implicit sessions in a single JSON document on
// disk so grants survive process restarts. Writes are atomic (temp file plus
// rename), and an fsnotify watcher picks up rewrites made by another process
// sharing the same cache file.
//
// An optional Sealer wraps the document in a compact JWS. A sealed cache
// that fails verification on load is treated as empty rather than trusted.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lumenbridge/intent-bridge-go/sessions"
)

type document struct {
	Sessions map[string]*sessions.Session `json:"sessions"`
}

// Store implements sessions.Store backed by one JSON file.
type Store struct {
	path   string
	sealer Sealer
	log    *slog.Logger

	mu   sync.RWMutex
	byPk map[string]*sessions.Session

	now func() time.Time

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithSealer wraps the persisted document in a compact JWS. A cache that
// fails verification loads as empty.
func WithSealer(sealer Sealer) Option {
	return func(s *Store) { s.sealer = sealer }
}

// WithLogger sets the logger used for watch and reload diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New opens (or initializes) the session cache at path and starts watching
// for external rewrites.
func New(path string, opts ...Option) (*Store, error) {
	s := &Store{
		path: filepath.Clean(path),
		log:  slog.Default(),
		byPk: make(map[string]*sessions.Session),
		now:  time.Now,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	// Watch the parent directory: atomic rename writes replace the file
	// inode, which breaks a watch placed on the file itself.
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Debug("fsnotify unavailable, external session updates will not be seen",
			slog.String("err", err.Error()))
		return s, nil
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		_ = w.Close()
		s.log.Debug("session cache watch failed", slog.String("err", err.Error()))
		return s, nil
	}
	s.watcher = w
	go s.watch()
	return s, nil
}

func (s *Store) watch() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.load(); err != nil {
				s.log.Warn("session cache reload failed", slog.String("err", err.Error()))
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Debug("session cache watch error", slog.String("err", err.Error()))
		}
	}
}

// load replaces the in-memory view with the on-disk document.
func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.mu.Lock()
		s.byPk = make(map[string]*sessions.Session)
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session cache %s: %w", s.path, err)
	}

	if s.sealer != nil {
		payload, err := s.sealer.Open(string(raw))
		if err != nil {
			// A cache that fails verification is not trusted.
			s.log.Warn("session cache seal verification failed, starting empty",
				slog.String("err", err.Error()))
			s.mu.Lock()
			s.byPk = make(map[string]*sessions.Session)
			s.mu.Unlock()
			return nil
		}
		raw = payload
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode session cache %s: %w", s.path, err)
	}

	byPk := make(map[string]*sessions.Session, len(doc.Sessions))
	for pubkey, sess := range doc.Sessions {
		if sess == nil {
			continue
		}
		sess.Pubkey = pubkey
		byPk[pubkey] = sess
	}

	s.mu.Lock()
	s.byPk = byPk
	s.mu.Unlock()
	return nil
}

// save writes the current view atomically. Caller holds s.mu.
func (s *Store) save() error {
	doc := document{Sessions: make(map[string]*sessions.Session, len(s.byPk))}
	for pubkey, sess := range s.byPk {
		doc.Sessions[pubkey] = sess
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode session cache: %w", err)
	}
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(raw)
		if err != nil {
			return fmt.Errorf("seal session cache: %w", err)
		}
		raw = []byte(sealed)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write session cache: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session cache: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write session cache: %w", err)
	}
	return nil
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

// Add stores sess and rewrites the cache file.
func (s *Store) Add(ctx context.Context, sess *sessions.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPk[sess.Pubkey] = sess.Clone()
	return s.save()
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

// Forget drops the session for pubkey and rewrites the cache file. Unknown
// keys are a no-op and do not touch the file.
func (s *Store) Forget(ctx context.Context, pubkey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byPk[pubkey]; !ok {
		return nil
	}
	delete(s.byPk, pubkey)
	return s.save()
}

// Close stops the file watcher. The cache file stays behind for the next
// process.
func (s *Store) Close() error {
	close(s.done)
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// SetNow overrides the clock. Test hook.
func (s *Store) SetNow(now func() time.Time) { s.now = now }

var _ sessions.Store = (*Store)(nil)
