// Package sessions defines the implicit session model and the store
// contract shared by its backends. An implicit session is a cached,
// time-bounded grant: the trusted surface hands back an opaque token after
// the user approves an implicit_flow request, and the dispatcher presents
// that token on later requests so low-risk intents skip interactive
// confirmation.
//
// The store is the single writer path for the session collection. The
// dispatcher never mutates sessions directly; it only calls Get, Add, List
// and Forget. At most one live session exists per pubkey — a fresh grant
// replaces the previous one — and expiry is evaluated at read time rather
// than eagerly evicted.
//
// Implementations
//
//	memorystore : process-local map, for tests and single-shot tools
//	filestore   : JSON document on disk, survives restarts, optional JWS seal
//	redisstore  : one key per pubkey with TTL pinned to the grant expiry
package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/lumenbridge/intent-bridge-go/wire"
)

// Session is one cached implicit grant, keyed by pubkey.
type Session struct {
	// Pubkey is the owning account identifier.
	Pubkey string

	// Token is the opaque session token minted by the trusted surface.
	Token string

	// ValidUntil is the absolute expiry of the grant.
	ValidUntil time.Time

	// Grants lists the intents this session may execute without
	// confirmation.
	Grants []string
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ValidUntil.After(now)
}

// GrantsIntent reports whether the session covers the named intent.
func (s *Session) GrantsIntent(name string) bool {
	return slices.Contains(s.Grants, name)
}

// Clone returns an independent copy, so store internals never alias caller
// state.
func (s *Session) Clone() *Session {
	out := *s
	out.Grants = slices.Clone(s.Grants)
	return &out
}

// persistedSession is the storage layout: {key, valid_until, grants} keyed
// by pubkey, with valid_until in Unix seconds.
type persistedSession struct {
	Token      string   `json:"key"`
	ValidUntil int64    `json:"valid_until"`
	Grants     []string `json:"grants,omitempty"`
}

// MarshalJSON emits the persisted layout.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(persistedSession{
		Token:      s.Token,
		ValidUntil: s.ValidUntil.Unix(),
		Grants:     s.Grants,
	})
}

// UnmarshalJSON reads the persisted layout. The pubkey rides in the record
// key, not the value, so callers set it after decoding.
func (s *Session) UnmarshalJSON(data []byte) error {
	var p persistedSession
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	s.Token = p.Token
	s.ValidUntil = time.Unix(p.ValidUntil, 0)
	s.Grants = p.Grants
	return nil
}

// FromResult builds a Session from a granted implicit_flow result payload.
func FromResult(res *wire.Result) (*Session, error) {
	if res.Pubkey == "" {
		return nil, fmt.Errorf("grant result has no pubkey")
	}
	if res.Session == "" {
		return nil, fmt.Errorf("grant result has no session token")
	}
	if res.ValidUntil <= 0 {
		return nil, fmt.Errorf("grant result has no expiry")
	}
	return &Session{
		Pubkey:     res.Pubkey,
		Token:      res.Session,
		ValidUntil: time.Unix(res.ValidUntil, 0),
		Grants:     slices.Clone(res.Grants),
	}, nil
}

// Store is the session cache contract. All backends replace by pubkey on
// Add, treat expired records as absent on Get, and make Forget a no-op for
// unknown keys.
type Store interface {
	// Get returns the session for pubkey only if it exists, has not
	// expired, and covers intent. Absent is (nil, nil); it is a pure
	// lookup with no side effects.
	Get(ctx context.Context, intent, pubkey string) (*Session, error)

	// Add stores sess, overwriting any existing session for its pubkey.
	Add(ctx context.Context, sess *Session) error

	// List enumerates stored sessions ordered by pubkey. Expired records
	// may still appear; callers filter as needed.
	List(ctx context.Context) ([]*Session, error)

	// Forget removes the session for pubkey. Forgetting an absent key is
	// a documented no-op, not an error.
	Forget(ctx context.Context, pubkey string) error

	// Close releases backend resources.
	Close() error
}
