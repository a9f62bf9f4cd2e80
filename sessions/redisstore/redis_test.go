package redisstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lumenbridge/intent-bridge-go/sessions"
	"github.com/lumenbridge/intent-bridge-go/sessions/sessionstest"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStoreConformance(t *testing.T) {
	client := newTestClient(t)
	sessionstest.RunStoreTests(t, func(t *testing.T) sessions.Store {
		// A unique prefix per subtest keeps runs isolated on a shared server.
		s, err := New(Config{
			Client:    client,
			KeyPrefix: fmt.Sprintf("bridge:test:%s:", uuid.NewString()),
		})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestExpiredGrantIsNotStored(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	s, err := New(Config{
		Client:    client,
		KeyPrefix: fmt.Sprintf("bridge:test:%s:", uuid.NewString()),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	pk := sessionstest.Pubkey('A')
	if err := s.Add(ctx, &sessions.Session{
		Pubkey:     pk,
		Token:      "tok",
		ValidUntil: time.Now().Add(-time.Minute),
		Grants:     []string{"pay"},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := client.Get(ctx, s.key(pk)).Err(); err != redis.Nil {
		t.Fatalf("expired grant reached Redis: %v", err)
	}
}

func TestTTLTracksExpiry(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	s, err := New(Config{
		Client:    client,
		KeyPrefix: fmt.Sprintf("bridge:test:%s:", uuid.NewString()),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	pk := sessionstest.Pubkey('B')
	if err := s.Add(ctx, &sessions.Session{
		Pubkey:     pk,
		Token:      "tok",
		ValidUntil: time.Now().Add(time.Hour),
		Grants:     []string{"pay"},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	ttl, err := client.TTL(ctx, s.key(pk)).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("TTL = %v, want within (0, 1h]", ttl)
	}
}
