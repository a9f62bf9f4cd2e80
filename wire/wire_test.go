package wire

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidAccountID(t *testing.T) {
	t.Parallel()
	valid := []string{
		"G" + strings.Repeat("A", 55),
		"G" + strings.Repeat("7", 55),
		"GA7" + strings.Repeat("Z", 53),
	}
	for _, s := range valid {
		if !ValidAccountID(s) {
			t.Fatalf("ValidAccountID(%q) = false", s)
		}
	}
	invalid := []string{
		"",
		"G",
		"G" + strings.Repeat("A", 54),
		"G" + strings.Repeat("A", 56),
		"S" + strings.Repeat("A", 55),
		"G" + strings.Repeat("a", 55),
		"G" + strings.Repeat("A", 54) + "-",
	}
	for _, s := range invalid {
		if ValidAccountID(s) {
			t.Fatalf("ValidAccountID(%q) = true", s)
		}
	}
}

func TestEnvelopeFlattening(t *testing.T) {
	t.Parallel()
	env := &Envelope{
		ID:      "corr-1",
		Intent:  "pay",
		Pubkey:  "G" + strings.Repeat("A", 55),
		Session: "tok",
		Params:  map[string]any{"amount": "10", "destination": "G" + strings.Repeat("B", 55)},
	}

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Params share the top-level object with the protocol fields.
	var flat map[string]any
	if err := json.Unmarshal(raw, &flat); err != nil {
		t.Fatalf("Unmarshal flat: %v", err)
	}
	for _, key := range []string{"id", "intent", "pubkey", "session", "amount", "destination"} {
		if _, ok := flat[key]; !ok {
			t.Fatalf("flattened envelope missing %q: %s", key, raw)
		}
	}
	if _, ok := flat["params"]; ok {
		t.Fatalf("envelope not flat: %s", raw)
	}

	var back Envelope
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("Unmarshal envelope: %v", err)
	}
	if back.ID != env.ID || back.Intent != env.Intent || back.Pubkey != env.Pubkey || back.Session != env.Session {
		t.Fatalf("round trip lost protocol fields: %+v", back)
	}
	if back.Params["amount"] != "10" {
		t.Fatalf("round trip lost params: %+v", back.Params)
	}
}

func TestEnvelopeUnmarshalRequiresIntent(t *testing.T) {
	t.Parallel()
	var env Envelope
	if err := json.Unmarshal([]byte(`{"id":"x","amount":"1"}`), &env); err == nil {
		t.Fatal("expected error for envelope without intent")
	}
}

func TestResultRetainsExtraFields(t *testing.T) {
	t.Parallel()
	raw := []byte(`{
		"intent": "sign",
		"pubkey": "G` + strings.Repeat("A", 55) + `",
		"signed_xdr": "AAAA...",
		"network": "public"
	}`)

	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if res.Intent != "sign" {
		t.Fatalf("Intent = %q", res.Intent)
	}
	if res.Granted {
		t.Fatal("Granted should default false")
	}
	var signed string
	if err := json.Unmarshal(res.Extra["signed_xdr"], &signed); err != nil || signed != "AAAA..." {
		t.Fatalf("Extra[signed_xdr] = %q, %v", signed, err)
	}
	if _, ok := res.Extra["intent"]; ok {
		t.Fatal("protocol field leaked into Extra")
	}

	out, err := json.Marshal(&res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(out, &flat); err != nil {
		t.Fatalf("Unmarshal flat: %v", err)
	}
	if flat["signed_xdr"] != "AAAA..." {
		t.Fatalf("re-marshal lost extra field: %s", out)
	}
}

func TestResultGrantFields(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"intent":"implicit_flow","granted":true,"session":"tok","valid_until":1700000000,"grants":["pay"]}`)
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !res.Granted || res.Session != "tok" || res.ValidUntil != 1700000000 || len(res.Grants) != 1 {
		t.Fatalf("grant fields mangled: %+v", res)
	}
	if res.Extra != nil {
		t.Fatalf("no extras expected, got %v", res.Extra)
	}
}
