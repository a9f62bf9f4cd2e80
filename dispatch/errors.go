package dispatch

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingIntent indicates the request named no intent at all.
	ErrMissingIntent = errors.New("intent is required")

	// ErrPromptThrottled indicates the per-account interactive prompt
	// budget is exhausted. Only returned when a throttle is configured
	// and a dialog surface would have opened.
	ErrPromptThrottled = errors.New("interactive prompt throttled")
)

// UnknownIntentError indicates the registry has no descriptor for the
// requested intent. Detected before any transport work.
type UnknownIntentError struct {
	Name string
}

func (e *UnknownIntentError) Error() string {
	return fmt.Sprintf("unknown intent: %s", e.Name)
}

// InvalidParametersError indicates the request parameters are not a
// well-formed structured mapping.
type InvalidParametersError struct {
	Reason string
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("invalid parameters: %s", e.Reason)
}

// InvalidPubkeyError indicates a supplied pubkey fails the fixed shape
// check. Never silently dropped.
type InvalidPubkeyError struct {
	Pubkey string
}

func (e *InvalidPubkeyError) Error() string {
	return fmt.Sprintf("invalid pubkey: %q", e.Pubkey)
}

// MissingRequiredParameterError names the parameter an intent requires and
// did not receive.
type MissingRequiredParameterError struct {
	Param  string
	Intent string
}

func (e *MissingRequiredParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %s for intent %s", e.Param, e.Intent)
}
