package ratelimit

import (
	"testing"
	"time"
)

func TestNilLimiterAllowsEverything(t *testing.T) {
	t.Parallel()
	var l *KeyLimiter
	for i := 0; i < 10; i++ {
		if !l.Allow("k", time.Now()) {
			t.Fatal("nil limiter denied")
		}
	}
}

func TestInvalidArgsReturnNil(t *testing.T) {
	t.Parallel()
	if New(0, 1, 0) != nil || New(1, 0, 0) != nil {
		t.Fatal("invalid args produced a limiter")
	}
}

func TestBurstThenDeny(t *testing.T) {
	t.Parallel()
	l := New(1, 2, 0)
	now := time.Now()

	if !l.Allow("a", now) || !l.Allow("a", now) {
		t.Fatal("burst denied")
	}
	if l.Allow("a", now) {
		t.Fatal("over-burst allowed")
	}
	// Keys are independent buckets.
	if !l.Allow("b", now) {
		t.Fatal("fresh key denied")
	}
	// Tokens refill with time.
	if !l.Allow("a", now.Add(time.Second)) {
		t.Fatal("refilled token denied")
	}
}
