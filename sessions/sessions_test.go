package sessions

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/lumenbridge/intent-bridge-go/wire"
)

func pk(fill byte) string { return "G" + strings.Repeat(string(fill), 55) }

func TestSessionExpiry(t *testing.T) {
	t.Parallel()
	now := time.Now()
	s := &Session{ValidUntil: now.Add(time.Minute)}
	if s.Expired(now) {
		t.Fatal("future expiry reported expired")
	}
	if !s.Expired(now.Add(2 * time.Minute)) {
		t.Fatal("past expiry reported live")
	}
	// Exactly at the boundary the grant is no longer valid.
	if !s.Expired(s.ValidUntil) {
		t.Fatal("boundary instant reported live")
	}
}

func TestSessionGrants(t *testing.T) {
	t.Parallel()
	s := &Session{Grants: []string{"pay", "sign"}}
	if !s.GrantsIntent("pay") || s.GrantsIntent("trust") {
		t.Fatalf("grant membership wrong: %v", s.Grants)
	}
}

func TestSessionPersistedLayout(t *testing.T) {
	t.Parallel()
	until := time.Unix(1700000000, 0)
	s := &Session{Pubkey: pk('A'), Token: "tok", ValidUntil: until, Grants: []string{"pay"}}

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// The stored record is {key, valid_until, grants}; the pubkey is the
	// record key, not part of the value.
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("Unmarshal flat: %v", err)
	}
	if flat["key"] != "tok" || flat["valid_until"] != float64(1700000000) {
		t.Fatalf("persisted layout wrong: %s", raw)
	}
	if _, ok := flat["pubkey"]; ok {
		t.Fatalf("pubkey duplicated into the record value: %s", raw)
	}

	var back Session
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	back.Pubkey = s.Pubkey
	if back.Token != s.Token || !back.ValidUntil.Equal(until) || len(back.Grants) != 1 {
		t.Fatalf("round trip mangled session: %+v", back)
	}
}

func TestFromResult(t *testing.T) {
	t.Parallel()
	until := time.Now().Add(time.Hour).Unix()

	res := &wire.Result{
		Intent:     "implicit_flow",
		Granted:    true,
		Pubkey:     pk('A'),
		Session:    "tok",
		ValidUntil: until,
		Grants:     []string{"pay"},
	}
	s, err := FromResult(res)
	if err != nil {
		t.Fatalf("FromResult: %v", err)
	}
	if s.Pubkey != res.Pubkey || s.Token != "tok" || s.ValidUntil.Unix() != until {
		t.Fatalf("FromResult = %+v", s)
	}

	for _, broken := range []*wire.Result{
		{Intent: "implicit_flow", Session: "tok", ValidUntil: until},        // no pubkey
		{Intent: "implicit_flow", Pubkey: pk('A'), ValidUntil: until},       // no token
		{Intent: "implicit_flow", Pubkey: pk('A'), Session: "tok"},          // no expiry
	} {
		if _, err := FromResult(broken); err == nil {
			t.Fatalf("FromResult(%+v) accepted an incomplete grant", broken)
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	t.Parallel()
	s := &Session{Pubkey: pk('A'), Grants: []string{"pay"}}
	c := s.Clone()
	c.Grants[0] = "sign"
	if s.Grants[0] != "pay" {
		t.Fatal("Clone shares the grants slice")
	}
}
