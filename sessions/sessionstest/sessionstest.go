// Package sessionstest exercises the sessions.Store contract against any
// backend. Store packages call RunStoreTests from their own tests so every
// implementation honors the same replace/expiry/forget semantics.
package sessionstest

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/lumenbridge/intent-bridge-go/sessions"
)

// Pubkey returns a shape-valid account ID filled with the given letter.
func Pubkey(fill byte) string {
	return "G" + strings.Repeat(string(fill), 55)
}

func grant(pubkey, token string, until time.Time, grants ...string) *sessions.Session {
	return &sessions.Session{Pubkey: pubkey, Token: token, ValidUntil: until, Grants: grants}
}

// RunStoreTests runs the conformance suite. newStore must return a fresh,
// empty store per invocation; cleanup is the caller's concern (t.Cleanup).
func RunStoreTests(t *testing.T, newStore func(t *testing.T) sessions.Store) {
	t.Helper()
	ctx := context.Background()
	future := time.Now().Add(time.Hour).Truncate(time.Second)

	t.Run("RoundTrip", func(t *testing.T) {
		s := newStore(t)
		pk := Pubkey('A')
		want := grant(pk, "tok-1", future, "pay", "sign")
		if err := s.Add(ctx, want); err != nil {
			t.Fatalf("Add: %v", err)
		}
		got, err := s.Get(ctx, "pay", pk)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got == nil {
			t.Fatal("Get returned absent for a live session")
		}
		if got.Token != want.Token || !got.ValidUntil.Equal(want.ValidUntil) || !reflect.DeepEqual(got.Grants, want.Grants) {
			t.Fatalf("Get = %+v, want %+v", got, want)
		}
	})

	t.Run("ExpiredIsAbsent", func(t *testing.T) {
		s := newStore(t)
		pk := Pubkey('B')
		if err := s.Add(ctx, grant(pk, "tok-2", time.Now().Add(-time.Minute), "pay")); err != nil {
			t.Fatalf("Add: %v", err)
		}
		got, err := s.Get(ctx, "pay", pk)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != nil {
			t.Fatalf("expired session should be absent, got %+v", got)
		}
	})

	t.Run("UngrantedIntentIsAbsent", func(t *testing.T) {
		s := newStore(t)
		pk := Pubkey('C')
		if err := s.Add(ctx, grant(pk, "tok-3", future, "pay")); err != nil {
			t.Fatalf("Add: %v", err)
		}
		got, err := s.Get(ctx, "sign", pk)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != nil {
			t.Fatalf("session should not cover sign, got %+v", got)
		}
	})

	t.Run("FreshGrantReplaces", func(t *testing.T) {
		s := newStore(t)
		pk := Pubkey('D')
		if err := s.Add(ctx, grant(pk, "old", future, "pay")); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := s.Add(ctx, grant(pk, "new", future, "sign")); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if got, err := s.Get(ctx, "pay", pk); err != nil || got != nil {
			t.Fatalf("old grant should be gone, got %+v err %v", got, err)
		}
		got, err := s.Get(ctx, "sign", pk)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got == nil || got.Token != "new" {
			t.Fatalf("want replaced token, got %+v", got)
		}
	})

	t.Run("ForgetIdempotent", func(t *testing.T) {
		s := newStore(t)
		pk := Pubkey('E')
		if err := s.Add(ctx, grant(pk, "tok-4", future, "pay")); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if err := s.Forget(ctx, pk); err != nil {
			t.Fatalf("Forget: %v", err)
		}
		if got, _ := s.Get(ctx, "pay", pk); got != nil {
			t.Fatalf("forgotten session still present: %+v", got)
		}
		// Second forget is a documented no-op.
		if err := s.Forget(ctx, pk); err != nil {
			t.Fatalf("second Forget: %v", err)
		}
		if err := s.Forget(ctx, Pubkey('Z')); err != nil {
			t.Fatalf("Forget of never-present key: %v", err)
		}
	})

	t.Run("ListOrdered", func(t *testing.T) {
		s := newStore(t)
		for _, fill := range []byte{'H', 'F', 'G'} {
			if err := s.Add(ctx, grant(Pubkey(fill), "tok-"+string(fill), future, "pay")); err != nil {
				t.Fatalf("Add: %v", err)
			}
		}
		got, err := s.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("List returned %d sessions, want 3", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i-1].Pubkey >= got[i].Pubkey {
				t.Fatalf("List not ordered by pubkey: %q before %q", got[i-1].Pubkey, got[i].Pubkey)
			}
		}
	})
}
