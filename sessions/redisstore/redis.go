// Package redisstore persists implicit sessions in Redis, one key per
// pubkey with the TTL pinned to the grant expiry. It is the backend to use
// when several processes of the same application share the session cache.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"

	"github.com/lumenbridge/intent-bridge-go/sessions"
)

// Config for the Redis-backed session store. Defaults can be loaded via
// envdecode.
type Config struct {
	// Client is an existing Redis client. When set, RedisAddr is ignored.
	Client *redis.Client

	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`

	// KeyPrefix for all keys. ENV: BRIDGE_SESSIONS_KEY_PREFIX
	KeyPrefix string `env:"BRIDGE_SESSIONS_KEY_PREFIX,default=bridge:sessions:"`
}

// Store implements sessions.Store on Redis.
type Store struct {
	client    *redis.Client
	keyPrefix string
	ownsConn  bool

	now func() time.Time
}

// New creates a Store from cfg, dialing RedisAddr when no client is given.
func New(cfg Config) (*Store, error) {
	client := cfg.Client
	owns := false
	if client == nil {
		addr := cfg.RedisAddr
		if addr == "" {
			addr = "localhost:6379"
		}
		client = redis.NewClient(&redis.Options{Addr: addr})
		owns = true
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "bridge:sessions:"
	}
	return &Store{client: client, keyPrefix: prefix, ownsConn: owns, now: time.Now}, nil
}

// NewFromEnv builds a Store using envdecode to populate Config.
func NewFromEnv() (*Store, error) {
	var cfg Config
	// Defaults are provided via struct tags.
	_ = envdecode.Decode(&cfg)
	return New(cfg)
}

func (s *Store) key(pubkey string) string { return s.keyPrefix + pubkey }

// Get returns the session for pubkey when present, unexpired, and covering
// intent. Redis evicts on TTL; the expiry check here only covers clock skew
// between writer and reader.
func (s *Store) Get(ctx context.Context, intent, pubkey string) (*sessions.Session, error) {
	raw, err := s.client.Get(ctx, s.key(pubkey)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session for %s: %w", pubkey, err)
	}

	sess, err := decodeSession(pubkey, []byte(raw))
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) || !sess.GrantsIntent(intent) {
		return nil, nil
	}
	return sess, nil
}

// Add stores sess under its pubkey with a TTL matching the grant expiry.
// A grant that is already expired is treated as absent and not stored.
func (s *Store) Add(ctx context.Context, sess *sessions.Session) error {
	ttl := sess.ValidUntil.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.Pubkey), raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session for %s: %w", sess.Pubkey, err)
	}
	return nil
}

// List enumerates stored sessions ordered by pubkey, using SCAN to avoid
// blocking the server on large key spaces.
func (s *Store) List(ctx context.Context) ([]*sessions.Session, error) {
	keys, err := s.scanKeys(ctx, s.keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}

	out := make([]*sessions.Session, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // expired between SCAN and MGET
		}
		pubkey := strings.TrimPrefix(keys[i], s.keyPrefix)
		sess, err := decodeSession(pubkey, []byte(raw))
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pubkey < out[j].Pubkey })
	return out, nil
}

// Forget deletes the session for pubkey. Deleting an absent key is a no-op.
func (s *Store) Forget(ctx context.Context, pubkey string) error {
	if err := s.client.Del(ctx, s.key(pubkey)).Err(); err != nil {
		return fmt.Errorf("failed to delete session for %s: %w", pubkey, err)
	}
	return nil
}

// Close releases the Redis client when the store dialed it itself.
func (s *Store) Close() error {
	if s.ownsConn {
		return s.client.Close()
	}
	return nil
}

func (s *Store) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			return keys, nil
		}
	}
}

func decodeSession(pubkey string, raw []byte) (*sessions.Session, error) {
	var sess sessions.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session for %s: %w", pubkey, err)
	}
	sess.Pubkey = pubkey
	return &sess, nil
}

// SetNow overrides the clock. Test hook.
func (s *Store) SetNow(now func() time.Time) { s.now = now }

var _ sessions.Store = (*Store)(nil)
