// Package wire contains the message shapes exchanged with the trusted
// confirmation surface. It mirrors the flat payload format the surface
// expects while keeping the Go side typed: envelopes marshal with their
// validated parameters inlined beside the protocol fields, and results
// retain intent-specific fields that the core does not interpret.
//
// The package is intentionally free of transport and policy logic. The
// dispatcher builds envelopes, transports frame and correlate them, and
// neither needs to agree on anything beyond these types.
package wire

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Reserved envelope field names. Parameters with these names never ride in
// the flattened parameter section; the typed fields win.
const (
	fieldID      = "id"
	fieldIntent  = "intent"
	fieldPubkey  = "pubkey"
	fieldSession = "session"
)

var accountIDPattern = regexp.MustCompile(`^G[A-Z0-9]{55}$`)

// ValidAccountID reports whether s has the fixed shape of an account
// identifier: "G" followed by 55 uppercase base-32 characters.
func ValidAccountID(s string) bool {
	return accountIDPattern.MatchString(s)
}

// NewCorrelationID allocates a fresh correlation identifier for one
// request/response exchange.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Envelope is the validated, schema-filtered request sent over a transport.
// It is built fresh for every dispatch, never persisted, and discarded once
// the correlated response resolves or the call fails.
type Envelope struct {
	// ID correlates the envelope with exactly one response.
	ID string

	// Intent names the requested operation.
	Intent string

	// Pubkey is the requesting account, when one was supplied. Always
	// shape-checked before the envelope is constructed.
	Pubkey string

	// Session carries an implicit session token, attached only when a
	// non-expired cached grant covers this intent.
	Session string

	// Params holds only parameters declared by the intent's descriptor.
	Params map[string]any
}

// MarshalJSON flattens the envelope: protocol fields and validated
// parameters share one JSON object, matching what the confirmation surface
// consumes.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Params)+4)
	for k, v := range e.Params {
		flat[k] = v
	}
	flat[fieldID] = e.ID
	flat[fieldIntent] = e.Intent
	if e.Pubkey != "" {
		flat[fieldPubkey] = e.Pubkey
	}
	if e.Session != "" {
		flat[fieldSession] = e.Session
	}
	return json.Marshal(flat)
}

// UnmarshalJSON is the inverse of MarshalJSON. Transports and relay servers
// use it to recover the protocol fields; everything else lands in Params.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var flat map[string]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("invalid envelope: %w", err)
	}

	take := func(name string, dst *string) error {
		raw, ok := flat[name]
		if !ok {
			return nil
		}
		delete(flat, name)
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("envelope field %s: %w", name, err)
		}
		return nil
	}

	if err := take(fieldID, &e.ID); err != nil {
		return err
	}
	if err := take(fieldIntent, &e.Intent); err != nil {
		return err
	}
	if err := take(fieldPubkey, &e.Pubkey); err != nil {
		return err
	}
	if err := take(fieldSession, &e.Session); err != nil {
		return err
	}
	if e.Intent == "" {
		return fmt.Errorf("envelope has no intent")
	}

	if len(flat) > 0 {
		e.Params = make(map[string]any, len(flat))
		for k, raw := range flat {
			var v any
			if err := json.Unmarshal(raw, &v); err != nil {
				return fmt.Errorf("envelope param %s: %w", k, err)
			}
			e.Params[k] = v
		}
	}
	return nil
}
