package wire

import (
	"encoding/json"
	"fmt"
)

// Result is the payload the confirmation surface resolves an exchange with.
// The core interprets only the fields below; anything intent-specific is
// preserved verbatim in Extra for the caller.
type Result struct {
	// Intent echoes the requested operation.
	Intent string

	// Granted is set on implicit_flow results when the user approved the
	// standing permission.
	Granted bool

	// Pubkey identifies the account the user confirmed with.
	Pubkey string

	// Session is the opaque token presented on subsequent requests in lieu
	// of interactive confirmation.
	Session string

	// ValidUntil is the absolute expiry of the session grant, in Unix
	// seconds. Zero when the result carries no grant.
	ValidUntil int64

	// Grants lists the intents the session may execute without
	// confirmation.
	Grants []string

	// Extra holds intent-specific response fields the core passes through
	// untouched.
	Extra map[string]json.RawMessage
}

// Response is the correlated frame a transport receives for an envelope.
// Exactly one of Result or Rejected is meaningful.
type Response struct {
	// ID echoes the envelope's correlation identifier.
	ID string `json:"id"`

	// Rejected indicates the user declined the request on the surface.
	Rejected bool `json:"rejected,omitempty"`

	// Result carries the resolved payload when the request was approved.
	Result *Result `json:"result,omitempty"`
}

type resultFields struct {
	Intent     string   `json:"intent"`
	Granted    bool     `json:"granted,omitempty"`
	Pubkey     string   `json:"pubkey,omitempty"`
	Session    string   `json:"session,omitempty"`
	ValidUntil int64    `json:"valid_until,omitempty"`
	Grants     []string `json:"grants,omitempty"`
}

var resultFieldNames = []string{"intent", "granted", "pubkey", "session", "valid_until", "grants"}

// UnmarshalJSON splits known protocol fields from intent-specific ones.
func (r *Result) UnmarshalJSON(data []byte) error {
	var known resultFields
	if err := json.Unmarshal(data, &known); err != nil {
		return fmt.Errorf("invalid result: %w", err)
	}
	if known.Intent == "" {
		return fmt.Errorf("result has no intent")
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("invalid result: %w", err)
	}
	for _, name := range resultFieldNames {
		delete(flat, name)
	}

	r.Intent = known.Intent
	r.Granted = known.Granted
	r.Pubkey = known.Pubkey
	r.Session = known.Session
	r.ValidUntil = known.ValidUntil
	r.Grants = known.Grants
	if len(flat) > 0 {
		r.Extra = flat
	} else {
		r.Extra = nil
	}
	return nil
}

// MarshalJSON re-flattens the result, protocol fields beside Extra.
func (r *Result) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(r.Extra)+6)
	for k, v := range r.Extra {
		flat[k] = v
	}
	flat["intent"] = r.Intent
	if r.Granted {
		flat["granted"] = true
	}
	if r.Pubkey != "" {
		flat["pubkey"] = r.Pubkey
	}
	if r.Session != "" {
		flat["session"] = r.Session
	}
	if r.ValidUntil != 0 {
		flat["valid_until"] = r.ValidUntil
	}
	if len(r.Grants) > 0 {
		flat["grants"] = r.Grants
	}
	return json.Marshal(flat)
}
