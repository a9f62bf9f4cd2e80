package memorystore

import (
	"context"
	"testing"
	"time"

	"github.com/lumenbridge/intent-bridge-go/sessions"
	"github.com/lumenbridge/intent-bridge-go/sessions/sessionstest"
)

func TestStoreConformance(t *testing.T) {
	t.Parallel()
	sessionstest.RunStoreTests(t, func(t *testing.T) sessions.Store {
		s := New()
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestGetDoesNotShareState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	defer s.Close()

	pk := sessionstest.Pubkey('A')
	if err := s.Add(ctx, &sessions.Session{
		Pubkey:     pk,
		Token:      "tok",
		ValidUntil: time.Now().Add(time.Hour),
		Grants:     []string{"pay"},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := s.Get(ctx, "pay", pk)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.Grants[0] = "mutated"

	again, err := s.Get(ctx, "pay", pk)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.Grants[0] != "pay" {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestPassiveExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New()
	defer s.Close()

	base := time.Now()
	s.SetNow(func() time.Time { return base })

	pk := sessionstest.Pubkey('B')
	if err := s.Add(ctx, &sessions.Session{
		Pubkey:     pk,
		Token:      "tok",
		ValidUntil: base.Add(time.Minute),
		Grants:     []string{"pay"},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if got, _ := s.Get(ctx, "pay", pk); got == nil {
		t.Fatal("live session absent")
	}

	s.SetNow(func() time.Time { return base.Add(2 * time.Minute) })
	if got, _ := s.Get(ctx, "pay", pk); got != nil {
		t.Fatalf("session should have expired, got %+v", got)
	}
}
