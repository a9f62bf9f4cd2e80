// Package transport defines the capability boundary between the dispatcher
// and the trusted confirmation surface. Every variant exposes one operation:
// exchange a single correlated request/response pair. How a variant performs
// correlation or origin checking internally is its own business; the
// dispatcher only selects among the three kinds and hands over an envelope.
//
// For hosts whose channel is a raw ordered message stream, Exchanger
// implements the correlation bookkeeping over a Conduit; wsrelay wires an
// Exchanger to a websocket relay, stdpipe to a child process's stdio.
package transport

import (
	"context"
	"errors"

	"github.com/lumenbridge/intent-bridge-go/wire"
)

// Kind tags the three mutually exclusive transport variants.
type Kind string

const (
	// KindDialog opens an interactive confirmation surface; a user must be
	// present.
	KindDialog Kind = "dialog"

	// KindFrame is the headless embedded-frame channel used to redeem an
	// implicit session without user attention.
	KindFrame Kind = "frame"

	// KindExtension is the installed-extension channel, preferred outright
	// whenever available.
	KindExtension Kind = "extension"
)

var (
	// ErrUserRejected indicates the user declined the request or closed
	// the interactive surface without answering.
	ErrUserRejected = errors.New("request rejected by user")

	// ErrTimeout indicates the exchange hit its bounded wait without a
	// response.
	ErrTimeout = errors.New("exchange timed out")

	// ErrChannelClosed indicates the remote surface went away before
	// responding.
	ErrChannelClosed = errors.New("channel closed")
)

// Transport exchanges exactly one outbound envelope for one inbound result.
type Transport interface {
	// Kind reports which variant this transport is.
	Kind() Kind

	// Exchange sends env and blocks until the correlated response
	// resolves, the exchange fails, or ctx is done. A failed exchange is
	// never interpreted as a grant.
	Exchange(ctx context.Context, env *wire.Envelope) (*wire.Result, error)

	// Close releases the underlying surface. Callers close on both the
	// success and failure paths.
	Close() error
}

// Provider is the host-supplied capability for detecting and opening
// transports. The dispatcher asks for extension availability first, then
// opens exactly one transport per dispatch.
type Provider interface {
	// ExtensionAvailable reports whether an extension-based channel is
	// currently present in the environment.
	ExtensionAvailable(ctx context.Context) bool

	// Open readies a transport of the given kind for one exchange.
	Open(ctx context.Context, kind Kind) (Transport, error)
}
